package prompt

// Syntax describes the structural markers a document must carry.
type Syntax struct {
	// Opener is written on the first line when no accepted header is present.
	Opener string
	// Headers are the first-line prefixes that count as a valid opener.
	Headers []string
	// Closer is the required last line; empty when the notation has none.
	Closer string
}

// Template is the synthesis-stage prompt for one dialect and notation.
type Template struct {
	Dialect      Dialect
	Notation     Notation
	Instructions string
}

// Render fills the template with the domain model from the extraction stage.
func (t Template) Render(domainModel string) string {
	lang := "Mermaid.js"
	if t.Notation == NotationPlantUML {
		lang = "PlantUML"
	}

	return "Generate " + lang + " code. " + t.Instructions +
		"\nModel: " + domainModel +
		"\nOutput ONLY raw code. No markdown."
}

type templateKey struct {
	notation Notation
	dialect  Dialect
}

var mermaidHeaders = []string{
	"graph", "flowchart", "classDiagram", "sequenceDiagram", "stateDiagram",
	"erDiagram", "journey", "gantt", "pie", "mindmap", "timeline",
}

var syntaxes = map[templateKey]Syntax{
	{NotationMermaid, DialectClass}:    {Opener: "classDiagram", Headers: []string{"classDiagram"}},
	{NotationMermaid, DialectSequence}: {Opener: "sequenceDiagram", Headers: []string{"sequenceDiagram"}},
	{NotationMermaid, DialectUseCase}:  {Opener: "graph LR", Headers: []string{"graph", "flowchart"}},
	{NotationMermaid, DialectGeneric}:  {Opener: "graph TD", Headers: mermaidHeaders},

	{NotationPlantUML, DialectClass}:    {Opener: "@startuml", Headers: []string{"@startuml"}, Closer: "@enduml"},
	{NotationPlantUML, DialectSequence}: {Opener: "@startuml", Headers: []string{"@startuml"}, Closer: "@enduml"},
	{NotationPlantUML, DialectUseCase}:  {Opener: "@startuml", Headers: []string{"@startuml"}, Closer: "@enduml"},
	{NotationPlantUML, DialectGeneric}:  {Opener: "@startuml", Headers: []string{"@startuml"}, Closer: "@enduml"},
}

var instructions = map[templateKey]string{
	{NotationMermaid, DialectClass}: "Start with 'classDiagram'. STRICT UML RULES: " +
		"\n1. Classes implementing Interfaces MUST use 'Class ..|> Interface' (dashed line with arrow). " +
		"\n2. Inheritance uses 'Child --|> Parent'. " +
		"\n3. Arrow direction MUST be FROM implementation TO definition. " +
		"\n4. Use 'class ClassName { type attr }'. No spaces in names.",
	{NotationMermaid, DialectSequence}: "Start with 'sequenceDiagram'. Declare every 'participant' before any message. " +
		"Use '->>' for synchronous calls and '-->>' for asynchronous or return messages.",
	{NotationMermaid, DialectUseCase}: "Use 'graph LR'. Represent actors as 'Actor((Actor Name))' and use cases as " +
		"'UC1([Use Case Name])'. Link them with arrows '-->'.",
	{NotationMermaid, DialectGeneric}: "Start with 'graph TD'.",

	{NotationPlantUML, DialectClass}: "Start with '@startuml' and end with '@enduml'. STRICT UML RULES: " +
		"\n1. Classes implementing interfaces MUST use 'Class ..|> Interface'. " +
		"\n2. Inheritance uses 'Child --|> Parent'. " +
		"\n3. Arrow direction MUST be FROM implementation TO definition. " +
		"\n4. Declare members inside 'class ClassName { type attr }'. No spaces in names.",
	{NotationPlantUML, DialectSequence}: "Start with '@startuml' and end with '@enduml'. Declare every 'participant' " +
		"before any message. Use '->' for synchronous calls and '-->' for asynchronous or return messages.",
	{NotationPlantUML, DialectUseCase}: "Start with '@startuml' and end with '@enduml'. Declare actors with " +
		"'actor \"Name\" as A1' and use cases with 'usecase \"Name\" as UC1'. Link them with '-->'.",
	{NotationPlantUML, DialectGeneric}: "Start with '@startuml' and end with '@enduml'.",
}

func templateFor(dialect Dialect, notation Notation) Template {
	key := templateKey{notation, dialect}
	text, ok := instructions[key]
	if !ok {
		key.dialect = DialectGeneric
		text = instructions[key]
	}

	return Template{Dialect: key.dialect, Notation: notation, Instructions: text}
}

// SyntaxFor returns the structural markers for dialect in notation.
func SyntaxFor(dialect Dialect, notation Notation) Syntax {
	if s, ok := syntaxes[templateKey{notation, dialect}]; ok {
		return s
	}
	return syntaxes[templateKey{ParseNotation(string(notation)), DialectGeneric}]
}
