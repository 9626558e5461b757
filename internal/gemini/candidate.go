package gemini

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultVariants lists API revisions in preference order.
var DefaultVariants = []string{"v1beta", "v1"}

// DefaultModels lists model identifiers in preference order.
var DefaultModels = []string{
	"gemini-flash-lite-latest",
	"gemini-pro-latest",
	"gemini-3-flash-preview",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro-latest",
}

// Candidate is one (variant, model) pair tried during fallback.
type Candidate struct {
	Variant string `json:"variant" yaml:"variant"`
	Model   string `json:"model" yaml:"model"`
}

func (c Candidate) String() string {
	return c.Variant + "/" + c.Model
}

// Candidates expands variants × models into the ordered fallback list,
// variant in the outer loop. Blank entries are skipped.
func Candidates(variants, models []string) []Candidate {
	out := make([]Candidate, 0, len(variants)*len(models))
	for _, v := range variants {
		if v == "" {
			continue
		}
		for _, m := range models {
			if m == "" {
				continue
			}
			out = append(out, Candidate{Variant: v, Model: m})
		}
	}
	return out
}

// DefaultCandidates returns the built-in fallback list.
func DefaultCandidates() []Candidate {
	return Candidates(DefaultVariants, DefaultModels)
}
