package router

import (
	"maps"
	"slices"
)

// Exemptions は認証を免除するルートパスの集合。
// Build 時に一度だけ構築され、以降は読み取り専用。
type Exemptions struct {
	paths map[string]struct{}
}

// newExemptions はルート定義から認証不要のパスを集めた集合を生成する。
func newExemptions(routes []Route) *Exemptions {
	paths := make(map[string]struct{})
	for _, r := range routes {
		if !r.RequiresAuth {
			paths[r.Path] = struct{}{}
		}
	}
	return &Exemptions{paths: paths}
}

// Contains はパスが免除対象かどうかを返す。パスは完全一致で比較する。
func (e *Exemptions) Contains(path string) bool {
	if e == nil {
		return false
	}
	_, ok := e.paths[path]
	return ok
}

// Len は免除パスの件数を返す。
func (e *Exemptions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.paths)
}

// Paths は免除パスを昇順で返す。
func (e *Exemptions) Paths() []string {
	if e == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.paths))
}
