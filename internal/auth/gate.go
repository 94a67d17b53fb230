package auth

import "sync"

// Panel names what a client sees.
type Panel string

const (
	PanelPublic    Panel = "public"
	PanelLogin     Panel = "login"
	PanelDashboard Panel = "dashboard"
)

// Gate is the view switch and login form of one client.
type Gate struct {
	mu            sync.Mutex
	adminView     bool
	authenticated bool
	username      string
	password      string
	errMsg        string
}

// GateView is the rendered state of a Gate.  The password is never exposed.
type GateView struct {
	Panel         Panel  `json:"panel"`
	AdminView     bool   `json:"adminView"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Error         string `json:"error,omitempty"`
}

// ToggleView flips between the public and the operator side.
func (g *Gate) ToggleView() {
	g.mu.Lock()
	g.adminView = !g.adminView
	g.mu.Unlock()
}

// Home returns to the public view and drops the operator login.
func (g *Gate) Home() {
	g.mu.Lock()
	g.adminView = false
	g.authenticated = false
	g.mu.Unlock()
}

// SetCredentials records the login form input.
func (g *Gate) SetCredentials(username, password string) {
	g.mu.Lock()
	g.username = username
	g.password = password
	g.mu.Unlock()
}

// Login checks the recorded credentials.  A failure leaves the gate locked
// and sets the error message.
func (g *Gate) Login(a Authenticator) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := a.Verify(g.username, g.password); err != nil {
		g.authenticated = false
		g.errMsg = ErrInvalidCredentials.Error()
		return ErrInvalidCredentials
	}
	g.authenticated = true
	g.errMsg = ""
	g.password = ""
	return nil
}

// Logout locks the console, leaves the operator side and clears the form.
func (g *Gate) Logout() {
	g.mu.Lock()
	g.authenticated = false
	g.adminView = false
	g.username = ""
	g.password = ""
	g.errMsg = ""
	g.mu.Unlock()
}

// Authenticated reports whether operator actions are allowed.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

func (g *Gate) View() GateView {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := GateView{
		Panel:         PanelPublic,
		AdminView:     g.adminView,
		Authenticated: g.authenticated,
		Username:      g.username,
		Error:         g.errMsg,
	}
	switch {
	case g.adminView && g.authenticated:
		v.Panel = PanelDashboard
	case g.adminView:
		v.Panel = PanelLogin
	}
	return v
}
