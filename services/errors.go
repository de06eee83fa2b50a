package services

import "errors"

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	// Жизненный цикл лобби
	ErrLobbyNameRequired = errors.New("lobby name is required")
	ErrLobbyNameTooLong  = errors.New("lobby name is too long")
	ErrLobbyLimitReached = errors.New("lobby limit reached")
	ErrLobbyNotFound     = errors.New("lobby not found")
	ErrNoLobbySelected   = errors.New("no lobby is currently selected")

	// Запись матча
	ErrMatchLimitReached   = errors.New("match limit reached for this lobby")
	ErrResultCountMismatch = errors.New("match must contain exactly one result per team")
	ErrUnknownTeam         = errors.New("result references a team outside this lobby")

	// Экспорт
	ErrNoMatchesToExport  = errors.New("lobby has no recorded matches to export")
	ErrPublishingDisabled = errors.New("results publishing is not configured")
)
