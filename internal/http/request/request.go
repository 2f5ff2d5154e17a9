// Package request разбирает параметры HTTP-запросов.
package request

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
)

// ChatIDParam имя параметра пути с идентификатором чата.
const ChatIDParam = "chat_id"

// ChatID читает идентификатор чата из пути запроса.
func ChatID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, ChatIDParam)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("request.ChatID: invalid chat id %q", raw)
	}
	return id, nil
}
