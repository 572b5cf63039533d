// Copyright 2025 Tabwire, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import "errors"

var (
	// ErrSizeMismatch is returned when a fixed-size type meets a
	// buffer or value of the wrong length, or when an encoding would
	// exceed the uint32 wire limit.
	ErrSizeMismatch = errors.New("codec: size mismatch")

	// ErrMalformedOffsetTable is returned when a vector or table
	// header breaks the offset rules: a full size that disagrees with
	// the buffer, offsets that decrease, or offsets out of range.
	ErrMalformedOffsetTable = errors.New("codec: malformed offset table")

	// ErrBufferTooShort is returned when a buffer ends before the
	// bytes its own headers promise.
	ErrBufferTooShort = errors.New("codec: buffer too short")

	// ErrTypeMismatch is returned when a value or view is used with a
	// shape its type does not have.
	ErrTypeMismatch = errors.New("codec: type mismatch")

	// ErrUnknownVariant is returned when a union carries a variant id
	// the schema does not declare and passthrough is not enabled.
	ErrUnknownVariant = errors.New("codec: unknown union variant")
)
