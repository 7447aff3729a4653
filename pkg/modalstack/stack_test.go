package modalstack

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	wo12  = Entry{Type: "work_order", ID: "12"}
	bld3  = Entry{Type: "building", ID: "3"}
	ast7  = Entry{Type: "asset", ID: "7"}
	inc5  = Entry{Type: "incident", ID: "5"}
	known = func(t string) bool { return t != "invoice" }
)

func TestParseEntry(t *testing.T) {
	e, ok := ParseEntry(" work_order:12 ")
	assert.True(t, ok)
	assert.Equal(t, wo12, e)

	for _, bad := range []string{"", "work_order", ":12", "work_order:", "a:b:c"} {
		_, ok := ParseEntry(bad)
		assert.False(t, ok, bad)
	}
}

func TestStack_Open(t *testing.T) {
	s := New(0)

	assert.Equal(t, ActionPush, s.Open(wo12))
	assert.Equal(t, ActionPush, s.Open(bld3))
	assert.Equal(t, ActionPush, s.Open(ast7))
	assert.Equal(t, []Entry{wo12, bld3, ast7}, s.Entries())

	assert.Equal(t, ActionNone, s.Open(ast7), "верхняя карточка уже открыта")
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, ActionReplace, s.Open(wo12), "повторное открытие закрывает всё выше")
	assert.Equal(t, []Entry{wo12}, s.Entries())
}

func TestStack_MaxDepthDropsOldest(t *testing.T) {
	s := New(2)
	s.Open(wo12)
	s.Open(bld3)
	assert.Equal(t, ActionPush, s.Open(ast7))
	assert.Equal(t, []Entry{bld3, ast7}, s.Entries())
	assert.Equal(t, DefaultMaxDepth, New(-1).MaxDepth())
}

func TestStack_Replace(t *testing.T) {
	s := New(0)
	assert.Equal(t, ActionPush, s.Replace(wo12), "на пустом стеке работает как Open")

	s.Open(bld3)
	assert.Equal(t, ActionReplace, s.Replace(ast7))
	assert.Equal(t, []Entry{wo12, ast7}, s.Entries())

	assert.Equal(t, ActionNone, s.Replace(ast7))
	assert.Equal(t, ActionReplace, s.Replace(wo12))
	assert.Equal(t, []Entry{wo12}, s.Entries())
}

func TestStack_Close(t *testing.T) {
	s := New(0, wo12, bld3, ast7, inc5)

	assert.Equal(t, ActionPop, s.Close())
	assert.Equal(t, []Entry{wo12, bld3, ast7}, s.Entries())

	assert.Equal(t, ActionNone, s.CloseTo(inc5), "нет в стеке")
	assert.Equal(t, ActionNone, s.CloseTo(ast7), "уже наверху")
	assert.Equal(t, ActionReplace, s.CloseTo(wo12))
	assert.Equal(t, []Entry{wo12}, s.Entries())

	assert.Equal(t, ActionReplace, s.CloseAll())
	assert.True(t, s.Empty())
	assert.Equal(t, ActionNone, s.CloseAll())
	assert.Equal(t, ActionNone, s.Close())

	_, ok := s.Top()
	assert.False(t, ok)
}

func TestParseQuery(t *testing.T) {
	values := url.Values{QueryParam: {"work_order:12,,garbage,invoice:1,building:3,asset:7,building:3"}}
	s := ParseQuery(values, known, 0)

	assert.Equal(t, []Entry{wo12, bld3}, s.Entries(), "повтор building:3 схлопывает asset:7")
	assert.Equal(t, "work_order:12,building:3", s.Query())

	assert.True(t, ParseQuery(url.Values{}, known, 0).Empty())
	assert.Equal(t, 5, ParseQuery(url.Values{QueryParam: {"invoice:1,a:1,b:2,c:3,d:4"}}, nil, 0).Len(), "без реестра типов принимается всё")
}

func TestStack_Apply(t *testing.T) {
	s := New(0, wo12, bld3)
	values := url.Values{"tab": {"history"}, QueryParam: {"old:1"}}

	out := s.Apply(values)
	assert.Equal(t, "history", out.Get("tab"))
	assert.Equal(t, "work_order:12,building:3", out.Get(QueryParam))
	assert.Equal(t, "old:1", values.Get(QueryParam), "исходные параметры не меняются")

	s.CloseAll()
	_, present := s.Apply(values)[QueryParam]
	assert.False(t, present)
}

func TestStack_Layers(t *testing.T) {
	s := New(0, wo12, bld3, ast7)
	layers := s.Layers(DefaultZIndexBase, DefaultZIndexStep)

	assert.Len(t, layers, 3)
	assert.Equal(t, Layer{Entry: wo12, Index: 0, ZIndex: 1000, Active: false}, layers[0])
	assert.Equal(t, Layer{Entry: ast7, Index: 2, ZIndex: 1020, Active: true}, layers[2])
	assert.Empty(t, New(0).Layers(0, 1))
}
