package models

import "time"

// StatusModel is the liveness payload.
type StatusModel struct {
	Status       string `json:"status"`
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
}

func NewStatus(t time.Time) StatusModel {
	return StatusModel{
		Status:       "Server is running",
		ReadableTime: t.Format(time.RFC3339),
		Time:         t.UnixMilli(),
	}
}
