package validation

import (
	"fmt"
	"regexp"
)

// IDPattern определяет допустимый формат идентификаторов проекта и участника
// Только латинские буквы (a-z, A-Z), цифры (0-9), дефис (-), нижнее подчеркивание (_)
// Длина: 1-64 символа
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	// MaxIDLen максимальная длина идентификатора
	MaxIDLen = 64
)

// ValidateID проверяет, что идентификатор соответствует требованиям.
// Идентификаторы попадают в адрес endpoint и ключи хранилищ, поэтому
// формат ограничен безопасным набором символов.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > MaxIDLen {
		return fmt.Errorf("identifier must not exceed %d characters", MaxIDLen)
	}

	if !IDPattern.MatchString(id) {
		return fmt.Errorf("identifier can only contain letters (a-z, A-Z), numbers (0-9), hyphens (-), and underscores (_)")
	}

	return nil
}
