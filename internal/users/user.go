package users

type User struct {
	ID             int      `json:"id"`
	Username       string   `json:"username"`
	Height         *float64 `json:"height,omitempty"`
	Weight         *float64 `json:"weight,omitempty"`
	ExperienceType *string  `json:"experience_type,omitempty"`
	HasLoggedIn    bool     `json:"has_logged_in"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type MetricsUpdate struct {
	Height         *float64 `json:"height"`
	Weight         *float64 `json:"weight"`
	ExperienceType *string  `json:"experience_type"`
}

func (u MetricsUpdate) Empty() bool {
	return u.Height == nil && u.Weight == nil && u.ExperienceType == nil
}
