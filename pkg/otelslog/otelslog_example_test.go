// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelslog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

func ExampleWithRequestID() {
	var buf bytes.Buffer
	logger := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

	ctx := WithRequestID(context.Background(), "5f0c7f0e")
	logger.InfoContext(ctx, "received request")

	var record struct {
		Message   string `json:"msg"`
		RequestID string `json:"request_id"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Print(record.RequestID)
	// Output: received request
	// 5f0c7f0e
}
