package profile

// Resolve returns explicit when set, otherwise fallback.
func Resolve(explicit, fallback *string) *string {
	if explicit != nil {
		return explicit
	}
	return fallback
}

// Params are the command inputs a context can supply. Commands fill them from
// flags first and call Fill to back-fill what is still unset.
type Params struct {
	Target       *string
	WifiName     *string
	WifiPassword *string
	DNSServers   []string
}

// Fill copies every unset parameter from current. A nil current leaves the
// parameters as they are; required values are validated by the caller.
func (p *Params) Fill(current *Context) {
	if current == nil {
		return
	}
	p.Target = Resolve(p.Target, current.Target)
	p.WifiName = Resolve(p.WifiName, current.WifiName)
	p.WifiPassword = Resolve(p.WifiPassword, current.WifiPassword)
	if p.DNSServers == nil {
		p.DNSServers = current.DNSServers
	}
}

// TargetValue returns the resolved target or "".
func (p *Params) TargetValue() string {
	if p.Target == nil {
		return ""
	}
	return *p.Target
}
