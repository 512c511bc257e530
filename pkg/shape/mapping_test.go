package shape

import "testing"

func TestNamingColumns(t *testing.T) {
	aggregates, err := Parse("", customerShape)
	if err != nil {
		t.Fatal(err)
	}
	root := aggregates[0].Root

	resolve := func(dot string) Path {
		p, ok := Resolve(root, dot)
		if !ok {
			t.Fatalf("cannot resolve %s", dot)
		}
		return p
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"root scalar", DefaultMapping.Column(resolve("name")), "name"},
		{"embedded scalar", DefaultMapping.Column(resolve("address.street")), "address_street"},
		{"nested scalar", DefaultMapping.Column(resolve("orders.item")), "orders_item"},
		{"column override", DefaultMapping.Column(resolve("attrs.value")), "attrs_val"},
		{"key override", DefaultMapping.KeyColumn(resolve("orders")), "order_idx"},
		{"default key", DefaultMapping.KeyColumn(resolve("attrs")), "attrs_key"},
		{"scalar collection", DefaultMapping.Column(resolve("tags")), "tags"},
		{"root id", DefaultMapping.IDColumn(RootPath(), root), "id"},
		{"no id", DefaultMapping.IDColumn(resolve("orders"), root.Property("orders").Target), ""},
		{"custom separator", Naming{Separator: "__", KeySuffix: "k"}.KeyColumn(resolve("attrs")), "attrs__k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	a := &Property{Name: "a"}
	b := &Property{Name: "b"}

	root := RootPath()
	if !root.IsRoot() || root.Leaf() != nil || root.String() != "<root>" {
		t.Errorf("unexpected root path %v", root)
	}

	pa := root.Extend(a)
	pab := pa.Extend(b)
	pac := pa.Extend(&Property{Name: "c"})

	if pab.DotPath() != "a.b" || pac.DotPath() != "a.c" {
		t.Errorf("Extend must not share segments: %s, %s", pab, pac)
	}
	if pab.Parent().DotPath() != "a" || pab.Leaf() != b || pab.Len() != 2 {
		t.Errorf("unexpected parent/leaf for %s", pab)
	}
	if _, ok := Resolve(&Entity{Properties: []*Property{a}}, "a.b"); ok {
		t.Error("Resolve through a scalar must fail")
	}
}
