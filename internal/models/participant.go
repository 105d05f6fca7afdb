package models

// Participant представляет одного идентифицированного участника совместной
// сессии редактирования. Идентификационные данные передаются вызывающей
// стороной при старте сессии и никогда не выводятся из сетевых сообщений.
type Participant struct {
	ID            string `json:"id"`             // ID уникальный идентификатор участника
	DisplayName   string `json:"display_name"`   // DisplayName отображаемое имя
	ContactHandle string `json:"contact_handle"` // ContactHandle контактный адрес (email и т.п.)
	AvatarRef     string `json:"avatar_ref,omitempty"`
	PresenceColor string `json:"presence_color"` // PresenceColor цвет курсора/выделения участника
}

// SessionStatus is a point-in-time snapshot of a collaboration session.
// It is computed on demand from the session's internal state, never cached.
type SessionStatus struct {
	ProjectID              string      `json:"project_id"`
	Participant            Participant `json:"participant"`
	ActiveParticipantCount int         `json:"active_participant_count"`
	CurrentVersion         int64       `json:"current_version"`
	Connected              bool        `json:"connected"`
}
