package comment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/VitaminP8/threadly/internal/storage"
)

const MaxContentLength = 3000

// NormalizeContent обрезает пробелы и проверяет длину текста комментария
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment cannot be empty", storage.ErrInvalidContent)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", fmt.Errorf("%w: comment is too long (maximum %d characters)", storage.ErrInvalidContent, MaxContentLength)
	}
	return content, nil
}
