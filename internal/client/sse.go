package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"wastetofeast/internal/stream"
)

const maxEventSize = 1 << 20

// readEvents decodes server-sent events from r until a terminal event.
func readEvents(r io.Reader, handle func(stream.Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []string
	dispatch := func() (bool, error) {
		if len(data) == 0 {
			return false, nil
		}
		payload := strings.Join(data, "\n")
		data = data[:0]

		var e stream.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return false, fmt.Errorf("failed to decode stream event: %w", err)
		}
		if err := handle(e); err != nil {
			return false, err
		}
		return e.Terminal(), nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			done, err := dispatch()
			if err != nil || done {
				return err
			}
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read recipe stream: %w", err)
	}

	done, err := dispatch()
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("recipe stream ended early: %w", io.ErrUnexpectedEOF)
	}
	return nil
}
