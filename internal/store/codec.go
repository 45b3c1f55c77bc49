package store

import jsoniter "github.com/json-iterator/go"

// json is the value codec for every record the store writes.
//
//nolint:gochecknoglobals // Shared codec configuration
var json = jsoniter.ConfigCompatibleWithStandardLibrary
