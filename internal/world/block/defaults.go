package block

// Регистрируем базовые типы блоков при импорте пакета
func init() {
	axis := map[string][]string{"axis": {"x", "y", "z"}}

	Register(Definition{ID: AirBlockID, Name: "air"})
	Register(Definition{ID: StoneBlockID, Name: "stone"})
	Register(Definition{ID: GrassBlockID, Name: "grass", Properties: map[string][]string{"snowy": {"false", "true"}}})
	Register(Definition{ID: WaterBlockID, Name: "water"})
	Register(Definition{ID: SandBlockID, Name: "sand"})
	Register(Definition{ID: DirtBlockID, Name: "dirt"})
	Register(Definition{ID: GravelBlockID, Name: "gravel"})

	Register(Definition{ID: PathBlockID, Name: "path"})
	Register(Definition{ID: FarmlandBlockID, Name: "farmland", Properties: map[string][]string{
		"moisture": {"0", "1", "2", "3", "4", "5", "6", "7"},
	}})
	Register(Definition{ID: CoarseDirtBlockID, Name: "coarse_dirt"})
	Register(Definition{ID: LogBlockID, Name: "log", Properties: axis})
	Register(Definition{ID: StrippedLogBlockID, Name: "stripped_log", Properties: axis})
}
