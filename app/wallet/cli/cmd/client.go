package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
)

var client = http.Client{Timeout: 30 * time.Second}

// get performs a GET against the node and decodes the JSON response.
func get(url string, resp any) error {
	return send(http.MethodGet, url, nil, resp)
}

// post performs a POST of the JSON encoded body against the node and decodes
// the JSON response.
func post(url string, body any, resp any) error {
	return send(http.MethodPost, url, body, resp)
}

func send(method string, url string, body any, resp any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	switch {
	case r.StatusCode == http.StatusNoContent:
		return nil

	case r.StatusCode >= http.StatusBadRequest:
		var er errs.Response
		if err := json.NewDecoder(r.Body).Decode(&er); err != nil {
			return fmt.Errorf("%s %s: status %d", method, url, r.StatusCode)
		}
		if len(er.Fields) > 0 {
			return fmt.Errorf("%s: %v", er.Error, er.Fields)
		}
		return fmt.Errorf("%s", er.Error)
	}

	if resp == nil {
		return nil
	}

	if err := json.NewDecoder(r.Body).Decode(resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
