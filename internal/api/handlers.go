package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/interactions/internal/auth"
	"github.com/annel0/interactions/internal/claims"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/journal"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/item"
)

const (
	defaultOutcomeLimit = 50
	maxOutcomeLimit     = 1000
)

// RecipeView: представление рецепта в ответах API
type RecipeView struct {
	ID     string            `json:"id"`
	Source string            `json:"source,omitempty"`
	Block  string            `json:"block"`
	Props  map[string]string `json:"properties,omitempty"`
	Tool   string            `json:"tool"`
	Meta   *int              `json:"meta,omitempty"`
	Faces  []string          `json:"faces,omitempty"`

	Change    *ChangeView    `json:"change,omitempty"`
	Drop      *DropView      `json:"drop,omitempty"`
	Damage    *DamageView    `json:"damage,omitempty"`
	Particles *ParticlesView `json:"particles,omitempty"`
}

type ChangeView struct {
	Block  string            `json:"block"`
	Props  map[string]string `json:"properties,omitempty"`
	Chance int               `json:"chance"`
}

type DropView struct {
	Item     string `json:"item"`
	Count    int    `json:"count"`
	Chance   int    `json:"chance"`
	Requires string `json:"requires"`
}

type DamageView struct {
	Amount   int    `json:"amount"`
	Chance   int    `json:"chance"`
	Requires string `json:"requires"`
}

type ParticlesView struct {
	Type  string `json:"type"`
	Param string `json:"param,omitempty"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Zone  string `json:"zone"`
}

// ClaimRequest: тело POST /api/admin/claims
type ClaimRequest struct {
	Pos   vec.Vec3 `json:"pos"`
	Owner uint64   `json:"owner"`
}

// ClaimView: состояние привата блока
type ClaimView struct {
	Pos     vec.Vec3 `json:"pos"`
	Owner   uint64   `json:"owner,omitempty"`
	Claimed bool     `json:"claimed"`
}

func newRecipeView(r *recipe.Recipe) RecipeView {
	v := RecipeView{
		ID:     r.ID,
		Source: r.Source,
		Block:  r.Target.Block.Name(),
		Props:  r.Target.Properties,
		Tool:   r.Tool.Item.Name(),
		Meta:   r.Tool.Meta,
	}
	for _, f := range r.Faces {
		v.Faces = append(v.Faces, f.String())
	}
	if r.Change != nil {
		v.Change = &ChangeView{Block: r.Change.State.ID.Name(), Props: r.Change.State.Properties, Chance: r.Change.Chance}
	}
	if r.Drop != nil {
		v.Drop = &DropView{Item: r.Drop.Stack.ID.Name(), Count: r.Drop.Stack.Count, Chance: r.Drop.Chance, Requires: r.Drop.Requires.String()}
	}
	if r.Damage != nil {
		v.Damage = &DamageView{Amount: r.Damage.Amount, Chance: r.Damage.Chance, Requires: r.Damage.Requires.String()}
	}
	if p := r.Particles; p != nil {
		v.Particles = &ParticlesView{Type: p.Type, Min: p.Min, Max: p.Max, Zone: p.Zone.String()}
		if p.Param != item.AirItemID {
			v.Particles.Param = p.Param.Name()
		}
	}
	return v
}

// handleListRecipes возвращает рецепты текущего снимка по порядку загрузки
func (rs *RestServer) handleListRecipes(c *gin.Context) {
	snap := rs.recipes.Snapshot()
	blockFilter := c.Query("block")

	views := make([]RecipeView, 0, snap.Len())
	for _, r := range snap.Recipes() {
		if blockFilter != "" && r.Target.Block.Name() != blockFilter {
			continue
		}
		views = append(views, newRecipeView(r))
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Data: gin.H{
			"generation": snap.Generation(),
			"loaded_at":  snap.LoadedAt(),
			"recipes":    views,
		},
	})
}

// handleGetRecipe возвращает рецепт по идентификатору
func (rs *RestServer) handleGetRecipe(c *gin.Context) {
	r, ok := rs.recipes.Snapshot().Get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "Рецепт не найден")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: newRecipeView(r)})
}

// handleReload перечитывает рецепты; при ошибке остаётся прежний набор
func (rs *RestServer) handleReload(c *gin.Context) {
	if rs.reload == nil {
		abort(c, http.StatusServiceUnavailable, "Перезагрузка недоступна")
		return
	}

	who := ""
	if op, ok := operator(c); ok {
		who = op.Operator
	}

	if err := rs.reload(); err != nil {
		rs.logger.Warn("Перезагрузка рецептов по запросу %s не удалась: %v", who, err)
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	snap := rs.recipes.Snapshot()
	rs.logger.Info("🔄 Рецепты перезагружены оператором %s: %d", who, snap.Len())
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Рецепты перезагружены",
		Data:    gin.H{"recipes": snap.Len(), "generation": snap.Generation()},
	})
}

// handleOutcomes отдаёт записи журнала: ?limit=N или ?since=RFC3339, ?recipe=id
func (rs *RestServer) handleOutcomes(c *gin.Context) {
	if rs.outcomes == nil {
		abort(c, http.StatusServiceUnavailable, "Журнал исходов выключен")
		return
	}

	limit := defaultOutcomeLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			abort(c, http.StatusBadRequest, "Неверный limit")
			return
		}
		limit = min(n, maxOutcomeLimit)
	}

	var (
		entries []journal.Entry
		err     error
	)
	if s := c.Query("since"); s != "" {
		since, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			abort(c, http.StatusBadRequest, "Неверный since, ожидается RFC3339")
			return
		}
		entries, err = rs.outcomes.Since(since)
	} else {
		entries, err = rs.outcomes.List(limit)
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	if id := c.Query("recipe"); id != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Outcome.RecipeID == id {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: entries})
}

// handleGetClaim показывает владельца блока
func (rs *RestServer) handleGetClaim(c *gin.Context) {
	pos, ok := parsePos(c)
	if !ok {
		return
	}
	owner, claimed, err := rs.claims.Owner(c.Request.Context(), pos)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: ClaimView{Pos: pos, Owner: owner, Claimed: claimed}})
}

// handleClaim закрепляет блок за владельцем
func (rs *RestServer) handleClaim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	if err := rs.claims.Claim(c.Request.Context(), req.Pos, req.Owner); err != nil {
		if errors.Is(err, claims.ErrInvalidOwner) {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	rs.logger.Info("🔒 Блок %v закреплён за %d", req.Pos, req.Owner)
	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Data:    ClaimView{Pos: req.Pos, Owner: req.Owner, Claimed: true},
	})
}

// handleRelease снимает приват
func (rs *RestServer) handleRelease(c *gin.Context) {
	pos, ok := parsePos(c)
	if !ok {
		return
	}
	if err := rs.claims.Release(c.Request.Context(), pos); err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: ClaimView{Pos: pos}})
}

// parsePos разбирает :x/:y/:z; при ошибке сам отвечает 400
func parsePos(c *gin.Context) (vec.Vec3, bool) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		n, err := strconv.Atoi(c.Param(name))
		if err != nil {
			abort(c, http.StatusBadRequest, "Неверная координата "+name)
			return vec.Vec3{}, false
		}
		coords[i] = n
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, true
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// handleLogin обменивает имя и пароль оператора на JWT
func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.ops == nil {
		c.JSON(http.StatusNotImplemented, LoginResponse{Message: "Вход по паролю выключен"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Message: "Неверный формат запроса"})
		return
	}

	token, op, err := auth.Login(c.Request.Context(), rs.ops, rs.issuer, req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, LoginResponse{Message: "Неверное имя пользователя или пароль"})
		return
	}
	if err != nil {
		rs.logger.Error("Ошибка входа оператора %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, LoginResponse{Message: "Внутренняя ошибка сервера"})
		return
	}

	rs.logger.Info("🔑 Вход оператора %s", op.Name)
	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Вход выполнен",
		IsAdmin: op.IsAdmin,
	})
}
