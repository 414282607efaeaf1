package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gravelRecipe(id string) *recipe.Recipe {
	return &recipe.Recipe{ID: id, Target: recipe.TargetMatch{Block: block.GravelBlockID}}
}

func gravelAction() interaction.Action {
	wm := world.NewWorldManager(nil)
	wm.SetBlockState(vec.Vec3{}, block.NewState(block.GravelBlockID))
	return interaction.Action{World: wm, Face: vec.FaceUp}
}

func ids(recipes []*recipe.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func TestStore_NewAndFind(t *testing.T) {
	s := New(nil, gravelRecipe("a"), gravelRecipe("b"))

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Generation())
	assert.Equal(t, 2, snap.Len())

	r, ok := snap.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", r.ID)

	assert.Equal(t, []string{"a", "b"}, ids(s.FindMatches(gravelAction())))
}

func TestStore_RejectsInvalidAndDuplicate(t *testing.T) {
	bad := gravelRecipe("bad")
	bad.Drop = &recipe.Drop{Chance: 500}

	s := New(nil, gravelRecipe("a"), bad, gravelRecipe("a"), nil)
	assert.Equal(t, []string{"a"}, ids(s.Snapshot().Recipes()))
}

func TestStore_ReloadReplacesWholesale(t *testing.T) {
	s := New(nil, gravelRecipe("old1"), gravelRecipe("old2"))
	before := s.Snapshot()

	require.NoError(t, s.Reload(Static(gravelRecipe("new1"))))

	after := s.Snapshot()
	assert.Equal(t, uint64(2), after.Generation())
	assert.Equal(t, []string{"new1"}, ids(s.FindMatches(gravelAction())))

	// Старый снимок неизменен
	assert.Equal(t, []string{"old1", "old2"}, ids(before.Recipes()))
}

func TestStore_ReloadErrorKeepsSnapshot(t *testing.T) {
	s := New(nil, gravelRecipe("keep"))
	boom := errors.New("диск недоступен")

	err := s.Reload(SourceFunc(func() ([]*recipe.Recipe, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), s.Snapshot().Generation())
	assert.Equal(t, []string{"keep"}, ids(s.Snapshot().Recipes()))
}

func TestStore_SnapshotRecipesIsCopy(t *testing.T) {
	s := New(nil, gravelRecipe("a"))
	list := s.Snapshot().Recipes()
	list[0] = gravelRecipe("hijack")

	assert.Equal(t, "a", s.Snapshot().Recipes()[0].ID)
}

func TestStore_ConcurrentReloadNeverMixes(t *testing.T) {
	setA := []*recipe.Recipe{gravelRecipe("a1"), gravelRecipe("a2"), gravelRecipe("a3")}
	setB := []*recipe.Recipe{gravelRecipe("b1"), gravelRecipe("b2")}
	s := New(nil, setA...)
	action := gravelAction()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				_ = s.Reload(Static(setB...))
			} else {
				_ = s.Reload(Static(setA...))
			}
		}
		close(stop)
	}()

	mixed := 0
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
		}
		got := ids(s.FindMatches(action))
		if !(equal(got, []string{"a1", "a2", "a3"}) || equal(got, []string{"b1", "b2"})) {
			mixed++
		}
	}
	wg.Wait()
	assert.Zero(t, mixed, "поиск не должен видеть смесь старых и новых рецептов")
}

func TestStore_LoadFromSource(t *testing.T) {
	s, err := Load(Static(gravelRecipe("x")), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Snapshot().Len())
	assert.Equal(t, uint64(1), s.Snapshot().Generation(), "первая загрузка: первое поколение")
}

func TestStore_ConcurrentReloadKeepsLatestRead(t *testing.T) {
	s := New(nil, gravelRecipe("initial"))

	var (
		mu    sync.Mutex
		order []string
	)
	read := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc(func() ([]*recipe.Recipe, error) {
		read("slow")
		close(started)
		<-release
		return []*recipe.Recipe{gravelRecipe("slow")}, nil
	})
	fast := SourceFunc(func() ([]*recipe.Recipe, error) {
		read("fast")
		return []*recipe.Recipe{gravelRecipe("fast")}, nil
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Reload(slow))
	}()
	<-started
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Reload(fast))
	}()
	// Даём быстрой перезагрузке шанс обогнать медленную
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Len(t, order, 2)
	assert.Equal(t, "slow", order[0])
	snap := s.Snapshot()
	_, ok := snap.Get(order[1])
	assert.True(t, ok, "активен набор, прочитанный последним")
	assert.Equal(t, uint64(3), snap.Generation())
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
