package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/inthunter/internal/classfile"
)

func TestBaseRegistry(t *testing.T) {
	r := NewBaseRegistry[string, int]()
	r.Add("a", 1)

	v, added := r.AddIfAbsent("a", 2)
	assert.False(t, added)
	assert.Equal(t, 1, v)

	v, added = r.AddIfAbsent("b", 3)
	assert.True(t, added)
	assert.Equal(t, 3, v)

	all := r.GetAll()
	all["c"] = 9
	assert.Equal(t, 2, r.Count())

	r.Clear()
	_, ok := r.Get("a")
	assert.False(t, ok)
	assert.Zero(t, r.Count())
}

func TestClassRegistry_Duplicates(t *testing.T) {
	cr := NewClassRegistry()

	first, added := cr.AddClass(&classfile.ClassFile{Name: "a.User"}, "one/User.class")
	require.True(t, added)
	held, added := cr.AddClass(&classfile.ClassFile{Name: "a.User"}, "two/User.class")
	assert.False(t, added)
	assert.Same(t, first, held)
	assert.Equal(t, "one/User.class", held.Path)
	assert.Equal(t, 1, cr.Count())
	assert.Equal(t, 1, cr.Duplicates())
}

func TestClassRegistry_ConcurrentAdds(t *testing.T) {
	cr := NewClassRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cr.AddClass(&classfile.ClassFile{Name: fmt.Sprintf("c.C%d", i%10)}, "x")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cr.Count())
	assert.Equal(t, 40, cr.Duplicates())

	for i := 0; i < 10; i++ {
		info, ok := cr.GetByName(fmt.Sprintf("c.C%d", i))
		require.True(t, ok)
		assert.Positive(t, info.LoadOrder)
	}
}
