package faucethttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alpenlabs/faucetd/log"
)

func writeJSON(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("encoding json response", "err", err)
	}
}

func writePlainDecimal(w http.ResponseWriter, v uint64) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", v)
}
