package domain

import "github.com/google/uuid"

// ChannelID identifies one data-channel endpoint within a server process.
type ChannelID string

func NewChannelID() ChannelID { return ChannelID(uuid.NewString()) }
