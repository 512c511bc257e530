package plan

// Node represents a node of a join tree
type Node interface {
	Children() []Node
	Explain() string
}
