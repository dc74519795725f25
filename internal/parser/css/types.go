package css

// Position locates the start of a node in its source. Offset is an
// absolute byte offset; Line and Column are 1-based, Column in bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Stylesheet is the rule tree of one parsed source.
type Stylesheet struct {
	Nodes []Node
}

// Node is a top-level stylesheet item: *Rule, *MediaRule or *Comment.
// Statements of any other kind (@import, @keyframes, ...) are not
// represented.
type Node interface {
	node()
}

// Rule is a qualified rule: a selector list and its block.
type Rule struct {
	Selectors []string
	Items     []BlockItem
	Position  Position
}

// MediaRule is an @media block. Only the rules directly inside it are kept.
type MediaRule struct {
	Query    string
	Rules    []*Rule
	Position Position
}

// Comment is a top-level comment.
type Comment struct {
	Text     string
	Position Position
}

func (*Rule) node()      {}
func (*MediaRule) node() {}
func (*Comment) node()   {}

// BlockItem is an entry in a rule's block: *Declaration or *Other.
type BlockItem interface {
	blockItem()
}

// Declaration is a `property: value` pair.
//
// Value is the raw source text between the colon and the terminating
// semicolon (or the end of the block), trimmed of surrounding whitespace.
// Interior newlines are preserved so multi-line values keep their shape.
type Declaration struct {
	Property       string
	Value          string
	Position       Position
	PropertyOffset int
	ValueOffset    int
}

// Other is any block entry that is not a declaration: nested rules,
// at-rules, comments.
type Other struct {
	Kind     string
	Position Position
}

func (*Declaration) blockItem() {}
func (*Other) blockItem()       {}
