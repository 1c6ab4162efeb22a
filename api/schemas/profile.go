package schemas

// -- Profile Schemas --

// Profile holds the candidate facts and source material consumed by the
// answer resolver. It is read-only after loading.
type Profile struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location,omitempty"`

	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	Website   string `json:"website,omitempty"`

	ExperienceYears float64  `json:"experience_years,omitempty"`
	CurrentTitle    string   `json:"current_title,omitempty"`
	CurrentCompany  string   `json:"current_company,omitempty"`
	Skills          []string `json:"skills,omitempty"`

	// ResumePath points at the document supplied to file fields.
	ResumePath string `json:"resume_path,omitempty"`
	// ResumeText is the extracted plain text handed to the inference
	// collaborator as evidence.
	ResumeText string `json:"-"`

	// Extra carries site-specific facts keyed by a lowercase attribute
	// name, consulted after the typed fields above.
	Extra map[string]string `json:"extra,omitempty"`
}
