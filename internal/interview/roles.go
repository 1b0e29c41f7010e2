package interview

// Role describes a target position.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Focus       []string `json:"focus,omitempty"`
}

// DefaultRole is assumed when the caller gives no role tag.
const DefaultRole = "software_engineer"

var roles = []Role{
	{
		ID:          "software_engineer",
		Name:        "Software Engineer",
		Description: "Backend, frontend or full-stack development with emphasis on system design and code quality.",
		Focus:       []string{"data structures", "system design", "testing", "code review"},
	},
	{
		ID:          "data_scientist",
		Name:        "Data Scientist",
		Description: "Statistical modelling, experimentation and machine learning in production.",
		Focus:       []string{"statistics", "feature engineering", "model evaluation", "experiment design"},
	},
	{
		ID:          "product_manager",
		Name:        "Product Manager",
		Description: "Product discovery, prioritization and cross-functional delivery.",
		Focus:       []string{"prioritization", "metrics", "stakeholder management", "roadmapping"},
	},
	{
		ID:          "devops_engineer",
		Name:        "DevOps Engineer",
		Description: "Infrastructure automation, CI/CD and production reliability.",
		Focus:       []string{"infrastructure as code", "observability", "incident response", "containers"},
	},
	{
		ID:          "frontend_developer",
		Name:        "Frontend Developer",
		Description: "User interfaces, accessibility and client-side performance.",
		Focus:       []string{"component design", "state management", "accessibility", "web performance"},
	},
	{
		ID:          "sales_representative",
		Name:        "Sales Representative",
		Description: "Prospecting, discovery calls and closing.",
		Focus:       []string{"discovery", "objection handling", "pipeline management", "negotiation"},
	},
}

// Roles returns the built-in roles.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// RoleFor resolves a role tag. Unknown tags become a custom role named after
// the tag.
func RoleFor(id string) Role {
	if id == "" {
		id = DefaultRole
	}
	for _, r := range roles {
		if r.ID == id {
			return r
		}
	}
	return Role{ID: id, Name: id, Description: "Custom role"}
}
