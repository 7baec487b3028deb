package config

type GatekeeperConfig interface {
	BackendConfig
	GetRefreshPath() string
	GetProbePath() string
	GetLoginPath() string
	GetLogoutPath() string
	GetAuthFailureStatuses() []int
	GetCoalesceRefresh() bool
	GetAntiForgeryHeader() string
	GetIDTokenIssuer() string
	GetIDTokenAudience() string
}

type Gatekeeper struct {
	Backend
	RefreshPath         string `env:"REFRESH_PATH" envDefault:"/auth/refresh"`
	ProbePath           string `env:"PROBE_PATH" envDefault:"/auth/me"`
	LoginPath           string `env:"LOGIN_PATH" envDefault:"/auth/login"`
	LogoutPath          string `env:"LOGOUT_PATH" envDefault:"/auth/logout"`
	AuthFailureStatuses []int  `env:"AUTH_FAILURE_STATUSES" envDefault:"401,403" envSeparator:","`
	CoalesceRefresh     bool   `env:"COALESCE_REFRESH" envDefault:"true"`
	AntiForgeryHeader   string `env:"ANTI_FORGERY_HEADER" envDefault:"X-XSRF-TOKEN"`
	IDTokenIssuer       string `env:"ID_TOKEN_ISSUER"`
	IDTokenAudience     string `env:"ID_TOKEN_AUDIENCE" envDefault:"fintrack"`
}

var _ GatekeeperConfig = Gatekeeper{}

func (g Gatekeeper) GetRefreshPath() string {
	return g.RefreshPath
}

// GetProbePath is the endpoint that reports the current identity at startup.
func (g Gatekeeper) GetProbePath() string {
	return g.ProbePath
}

func (g Gatekeeper) GetLoginPath() string {
	return g.LoginPath
}

func (g Gatekeeper) GetLogoutPath() string {
	return g.LogoutPath
}

func (g Gatekeeper) GetAuthFailureStatuses() []int {
	return append([]int(nil), g.AuthFailureStatuses...)
}

func (g Gatekeeper) GetCoalesceRefresh() bool {
	return g.CoalesceRefresh
}

func (g Gatekeeper) GetAntiForgeryHeader() string {
	return g.AntiForgeryHeader
}

// GetIDTokenIssuer is empty when id tokens are not verified.
func (g Gatekeeper) GetIDTokenIssuer() string {
	return g.IDTokenIssuer
}

func (g Gatekeeper) GetIDTokenAudience() string {
	return g.IDTokenAudience
}
