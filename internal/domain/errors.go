package domain

import "errors"

var (
	// ErrConfigurationMissing means the API key or channel id is empty.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrListing wraps network and decode failures of the channel listing.
	ErrListing = errors.New("list channel videos")
	// ErrDecode indicates a response that could not be decoded or lacks required fields.
	ErrDecode = errors.New("decode response")
	// ErrVideoNotFound indicates the detail endpoint returned no items.
	ErrVideoNotFound = errors.New("video not found")
	// ErrDuplicate indicates an article for the video id already exists.
	ErrDuplicate = errors.New("article already exists")
	ErrCreate    = errors.New("create article")

	ErrImageDownload = errors.New("download image")
	ErrImageAttach   = errors.New("attach image")

	ErrRunInProgress = errors.New("sync run already in progress")
	ErrNotFound      = errors.New("not found")
)
