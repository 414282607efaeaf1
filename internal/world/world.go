package world

import (
	"sync"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/entity"
	"github.com/annel0/interactions/internal/world/item"
)

// WorldManager: простой мир в памяти. Реализует
// interaction.AuthoritativeWorld, interaction.PresentationWorld и
// interaction.PermissionChecker; используется сервером-демо и тестами.
type WorldManager struct {
	mu           sync.RWMutex
	blocks       map[vec.Vec3]block.State // Непустые блоки
	items        map[uint64]*entity.ItemEntity
	particles    []interaction.Particle
	protected    map[vec.Vec3]struct{} // Защищённые позиции (приваты)
	listeners    []Listener
	nextEntityID uint64
	maxParticles int
	logger       *logging.Logger
}

// NewWorldManager создаёт пустой мир
func NewWorldManager(logger *logging.Logger) *WorldManager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &WorldManager{
		blocks:       make(map[vec.Vec3]block.State),
		items:        make(map[uint64]*entity.ItemEntity),
		protected:    make(map[vec.Vec3]struct{}),
		nextEntityID: 1000, // Начинаем с 1000, чтобы избежать конфликтов с ID игроков
		maxParticles: 4096,
		logger:       logger,
	}
}

// AddListener подписывает слушателя на события мира
func (wm *WorldManager) AddListener(l Listener) {
	wm.mu.Lock()
	wm.listeners = append(wm.listeners, l)
	wm.mu.Unlock()
}

// BlockAt возвращает состояние блока; пустота: воздух
func (wm *WorldManager) BlockAt(pos vec.Vec3) block.State {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	if s, ok := wm.blocks[pos]; ok {
		return s.Clone()
	}
	return block.NewState(block.AirBlockID)
}

// SetBlockState устанавливает состояние блока
func (wm *WorldManager) SetBlockState(pos vec.Vec3, state block.State) {
	wm.mu.Lock()
	prev, ok := wm.blocks[pos]
	if !ok {
		prev = block.NewState(block.AirBlockID)
	}
	if state.ID == block.AirBlockID {
		delete(wm.blocks, pos)
	} else {
		wm.blocks[pos] = state.Clone()
	}
	listeners := wm.listeners
	wm.mu.Unlock()

	wm.logger.Debug("Блок %v: %s -> %s", pos, prev, state)
	notify(listeners, Event{Type: EventTypeBlockChange, Position: pos, Previous: prev, Block: state.Clone()})
}

// SpawnItem создаёт сущность-предмет в точке at
func (wm *WorldManager) SpawnItem(stack item.Stack, at vec.Vec3Float) {
	wm.mu.Lock()
	id := wm.nextEntityID
	wm.nextEntityID++
	wm.items[id] = entity.NewItemEntity(id, stack, at)
	listeners := wm.listeners
	wm.mu.Unlock()

	wm.logger.Debug("Предмет %s (entity %d) появился в (%.2f, %.2f, %.2f)", stack, id, at.X, at.Y, at.Z)
	notify(listeners, Event{Type: EventTypeItemSpawn, Position: at.Floor(), At: at, EntityID: id, Stack: stack})
}

// DamageItem расходует прочность held. Если прочность исчерпана,
// один предмет стопки ломается и поломка засчитывается актору.
// Игроки в креативе прочность не тратят.
func (wm *WorldManager) DamageItem(held *item.Stack, amount int, actor interaction.Actor) {
	if held.IsEmpty() || amount <= 0 {
		return
	}
	def, ok := item.Get(held.ID)
	if !ok || !def.Damageable() {
		return
	}

	var actorID uint64
	if actor != nil {
		actorID = actor.ID()
	}
	if p, ok := actor.(*entity.Player); ok && !p.UsesDurability() {
		return
	}

	wm.mu.RLock()
	listeners := wm.listeners
	wm.mu.RUnlock()

	held.Damage += amount
	notify(listeners, Event{Type: EventTypeItemDamage, Stack: *held, ActorID: actorID, Amount: amount})

	if held.Damage < def.MaxDurability {
		return
	}

	broken := *held
	held.Count--
	held.Damage = 0
	if held.Count <= 0 {
		*held = item.Stack{}
	}

	if p, ok := actor.(*entity.Player); ok {
		p.OnItemBroken(broken)
	}
	wm.logger.Info("Предмет %s сломался у актора %d", broken.ID.Name(), actorID)
	notify(listeners, Event{Type: EventTypeItemBreak, Stack: broken, ActorID: actorID})
}

// SpawnParticle запоминает частицу (в реальном клиенте: рендер)
func (wm *WorldManager) SpawnParticle(p interaction.Particle) {
	wm.mu.Lock()
	if len(wm.particles) >= wm.maxParticles {
		wm.particles = wm.particles[1:]
	}
	wm.particles = append(wm.particles, p)
	listeners := wm.listeners
	wm.mu.Unlock()

	pc := p
	notify(listeners, Event{Type: EventTypeParticle, Position: p.Pos.Floor(), At: p.Pos, Particle: &pc})
}

// CanEdit запрещает изменения в защищённых позициях и для наблюдателей
func (wm *WorldManager) CanEdit(actor interaction.Actor, pos vec.Vec3, face vec.Face, held *item.Stack) bool {
	if p, ok := actor.(*entity.Player); ok && !p.CanBuild() {
		return false
	}
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	_, locked := wm.protected[pos]
	return !locked
}

// Protect запрещает изменять блок в позиции
func (wm *WorldManager) Protect(pos vec.Vec3) {
	wm.mu.Lock()
	wm.protected[pos] = struct{}{}
	wm.mu.Unlock()
}

// Unprotect снимает защиту
func (wm *WorldManager) Unprotect(pos vec.Vec3) {
	wm.mu.Lock()
	delete(wm.protected, pos)
	wm.mu.Unlock()
}

// Items возвращает копии лежащих в мире предметов
func (wm *WorldManager) Items() []entity.ItemEntity {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	out := make([]entity.ItemEntity, 0, len(wm.items))
	for _, it := range wm.items {
		out = append(out, *it)
	}
	return out
}

// RemoveItem убирает предмет из мира (подбор)
func (wm *WorldManager) RemoveItem(id uint64) (item.Stack, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	it, ok := wm.items[id]
	if !ok {
		return item.Stack{}, false
	}
	delete(wm.items, id)
	return it.Stack, true
}

// Particles возвращает копию буфера частиц
func (wm *WorldManager) Particles() []interaction.Particle {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	out := make([]interaction.Particle, len(wm.particles))
	copy(out, wm.particles)
	return out
}

// ClearParticles очищает буфер частиц
func (wm *WorldManager) ClearParticles() {
	wm.mu.Lock()
	wm.particles = wm.particles[:0]
	wm.mu.Unlock()
}

func notify(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l.OnWorldEvent(ev)
	}
}
