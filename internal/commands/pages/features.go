package pagescmd

// FeatureGates exposes runtime toggles required by page command handlers.
// Callers inject closures wired to Config so handlers stay decoupled from it.
type FeatureGates struct {
	// CommandsEnabled should return false to reject every page command.
	CommandsEnabled func() bool
	// ProvisioningEnabled should return true when reconcile commands may
	// create missing pages.
	ProvisioningEnabled func() bool
}

func (g FeatureGates) commandsEnabled() bool {
	if g.CommandsEnabled == nil {
		return true
	}
	return g.CommandsEnabled()
}

func (g FeatureGates) provisioningEnabled() bool {
	if g.ProvisioningEnabled == nil {
		return true
	}
	return g.ProvisioningEnabled()
}
