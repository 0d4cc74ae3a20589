package search

// RoleKeywords maps a role key to the lowercase title substrings that select
// it. A job matches a role when its lowercased title contains any keyword.
var RoleKeywords = map[string][]string{
	"se":       {"solutions engineer", "solutions consultant"},
	"fde":      {"forward deployed engineer", "fde"},
	"presales": {"pre-sales", "presales", "sales engineer"},
	"tam":      {"technical account manager", "customer success engineer", "customer engineer"},
	"impl":     {"implementation engineer", "deployment engineer", "integration engineer"},
}

var RoleLabels = map[string]string{
	"se":       "Solutions Engineer",
	"fde":      "Forward Deployed Engineer",
	"presales": "Pre-Sales / Sales Engineer",
	"tam":      "Technical Account Manager",
	"impl":     "Implementation Engineer",
}

// RoleOrder is the display order of role keys.
var RoleOrder = []string{"se", "fde", "presales", "tam", "impl"}

func IsKnownRole(key string) bool {
	_, ok := RoleKeywords[key]
	return ok
}
