package logging

// Domain-scoped logger constructors. Each returns a copy of the default
// logger carrying the identifying fields for one kind of operation, so
// handlers log with consistent field names.

// EntryContext scopes a logger to a daily entry operation.
func EntryContext(accountID, playerID, entryDate string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"account_id": accountID,
		"player_id":  playerID,
		"entry_date": entryDate,
	}).WithComponent("entry")
}

// AccountContext scopes a logger to an account operation.
func AccountContext(accountID, accountType string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"account_id":   accountID,
		"account_type": accountType,
	}).WithComponent("account")
}

// AgentContext scopes a logger to an agent operation.
func AgentContext(agentID string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"agent_id": agentID,
	}).WithComponent("agent")
}

// SettlementContext scopes a logger to a settlement update.
func SettlementContext(entryID, party string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"entry_id": entryID,
		"party":    party,
	}).WithComponent("settlement")
}
