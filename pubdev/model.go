package pubdev

type VersionInfo struct {
	Version   string `json:"version"`
	Retracted bool   `json:"retracted,omitempty"`
}

type PackageInfo struct {
	Name           string        `json:"name"`
	Latest         VersionInfo   `json:"latest"`
	Versions       []VersionInfo `json:"versions"`
	IsDiscontinued bool          `json:"isDiscontinued,omitempty"`
	ReplacedBy     string        `json:"replacedBy,omitempty"`
}

type PackageScore struct {
	GrantedPoints   int      `json:"grantedPoints"`
	MaxPoints       int      `json:"maxPoints"`
	LikeCount       int      `json:"likeCount"`
	PopularityScore float64  `json:"popularityScore"`
	Tags            []string `json:"tags"`
}
