package server

import (
	"encoding/json"
	"net/http"
)

type Error struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.LogError(err, "cannot marshal response")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(&Error{Error: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, &Error{Error: err.Error()})
}
