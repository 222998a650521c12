package registry

import (
	"sync/atomic"

	"github.com/mabhi256/inthunter/internal/classfile"
)

// ClassInfo is what the scan remembers about a class after its model is
// dropped.
type ClassInfo struct {
	Name       string
	SuperName  string
	Interfaces []string
	Path       string
	LoadOrder  int // order in which the class was registered
}

// ClassRegistry is the per-scan class cache. Only the first file seen for
// a class name is kept; later ones are counted as duplicates.
type ClassRegistry struct {
	classes    *BaseRegistry[string, *ClassInfo]
	loadOrder  atomic.Int64
	duplicates atomic.Int64
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		classes: NewBaseRegistry[string, *ClassInfo](),
	}
}

// AddClass registers cf as read from path. When the name is already taken
// it returns the earlier entry and false.
func (cr *ClassRegistry) AddClass(cf *classfile.ClassFile, path string) (*ClassInfo, bool) {
	info := &ClassInfo{
		Name:       cf.Name,
		SuperName:  cf.SuperName,
		Interfaces: cf.Interfaces,
		Path:       path,
		LoadOrder:  int(cr.loadOrder.Add(1)),
	}
	held, added := cr.classes.AddIfAbsent(cf.Name, info)
	if !added {
		cr.duplicates.Add(1)
	}
	return held, added
}

func (cr *ClassRegistry) GetByName(name string) (*ClassInfo, bool) {
	return cr.classes.Get(name)
}

func (cr *ClassRegistry) Count() int {
	return cr.classes.Count()
}

func (cr *ClassRegistry) Duplicates() int {
	return int(cr.duplicates.Load())
}
