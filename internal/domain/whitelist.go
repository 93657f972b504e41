package domain

// WhitelistApp is an application during which reminders should not interrupt.
type WhitelistApp struct {
	Package string
	Name    string
	Enabled bool
}

// Whitelist is the set of "do not interrupt" apps plus its master switch.
type Whitelist struct {
	Enabled bool
	Apps    []WhitelistApp
}

// EnabledPackages returns the packages the oracle should look for.
// A disabled whitelist yields none.
func (w Whitelist) EnabledPackages() []string {
	if !w.Enabled {
		return nil
	}
	var out []string
	for _, a := range w.Apps {
		if a.Enabled {
			out = append(out, a.Package)
		}
	}
	return out
}
