// Copyright 2026 Tabwire, Inc.
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

package artifact

import "github.com/tabwire/tabwire/codec"

// ActionView reads one action straight out of an encoded buffer. The
// view borrows the buffer; nothing is copied.
type ActionView struct {
	tv codec.TableView
}

// ViewAction verifies |buf| as an encoded Action and wraps it.
func ViewAction(buf []byte) (ActionView, error) {
	v, err := codec.Decode(Type("Action"), buf)
	if err != nil {
		return ActionView{}, err
	}
	tv, err := v.Table()
	if err != nil {
		return ActionView{}, err
	}
	return ActionView{tv: tv}, nil
}

// ScriptInfoHash returns the 32 byte script info hash, or false when
// the field is absent.
func (a ActionView) ScriptInfoHash() ([]byte, bool) {
	f, ok := a.tv.FieldByName("script_info_hash")
	if !ok {
		return nil, false
	}
	return f.Bytes(), true
}

// ScriptHash returns the 32 byte script hash, or false when the field
// is absent.
func (a ActionView) ScriptHash() ([]byte, bool) {
	f, ok := a.tv.FieldByName("script_hash")
	if !ok {
		return nil, false
	}
	return f.Bytes(), true
}

// Data returns the action payload, or false when the field is absent.
func (a ActionView) Data() ([]byte, bool) {
	f, ok := a.tv.FieldByName("data")
	if !ok {
		return nil, false
	}
	b, _ := f.ByteString()
	return b, true
}

// MessageView reads an encoded Message without copying it.
type MessageView struct {
	tv codec.TableView
}

// ViewMessage verifies |buf| as an encoded Message and wraps it.
func ViewMessage(buf []byte) (MessageView, error) {
	v, err := codec.Decode(Type("Message"), buf)
	if err != nil {
		return MessageView{}, err
	}
	tv, err := v.Table()
	if err != nil {
		return MessageView{}, err
	}
	return MessageView{tv: tv}, nil
}

// NumActions returns the number of actions in the message.
func (m MessageView) NumActions() int {
	f, ok := m.tv.FieldByName("actions")
	if !ok {
		return 0
	}
	vv, _ := f.Vector()
	return vv.Len()
}

// Action returns the i'th action. It panics when i is out of range.
func (m MessageView) Action(i int) ActionView {
	f, ok := m.tv.FieldByName("actions")
	if !ok {
		panic("message carries no actions")
	}
	vv, _ := f.Vector()
	tv, _ := vv.Get(i).Table()
	return ActionView{tv: tv}
}

// WitnessView reads an encoded ExtendedWitness without copying it.
// Arm-specific accessors answer (value, false) when the witness arm
// does not carry the requested part.
type WitnessView struct {
	uv codec.UnionView
}

// ViewWitness verifies |buf| as an encoded ExtendedWitness and wraps
// it. Unknown variant tags are rejected; use ViewWitnessOpts to keep
// them opaque instead.
func ViewWitness(buf []byte) (WitnessView, error) {
	return ViewWitnessOpts(buf, codec.DecodeOptions{})
}

// ViewWitnessOpts is ViewWitness with explicit decode options.
func ViewWitnessOpts(buf []byte, opts codec.DecodeOptions) (WitnessView, error) {
	v, err := codec.DecodeOpts(Type("ExtendedWitness"), buf, opts)
	if err != nil {
		return WitnessView{}, err
	}
	uv, err := v.Union()
	if err != nil {
		return WitnessView{}, err
	}
	return WitnessView{uv: uv}, nil
}

// VariantID returns the wire tag of the witness arm.
func (w WitnessView) VariantID() uint32 {
	return w.uv.VariantID()
}

// Variant returns the arm name, or "" for an unknown tag.
func (w WitnessView) Variant() string {
	return w.uv.VariantName()
}

// Known reports whether the tag matches a declared arm.
func (w WitnessView) Known() bool {
	return w.uv.Known()
}

// Payload returns the raw bytes behind the tag, whatever the arm.
func (w WitnessView) Payload() []byte {
	return w.uv.Value().Bytes()
}

// Lock returns the lock bytes for arms that carry one.
func (w WitnessView) Lock() ([]byte, bool) {
	switch w.uv.VariantName() {
	case VariantSighashWithAction, VariantSighash, VariantOtx:
	default:
		return nil, false
	}
	tv, _ := w.uv.Value().Table()
	f, ok := tv.FieldByName("lock")
	if !ok {
		return nil, false
	}
	b, _ := f.ByteString()
	return b, true
}

// Message returns the embedded message view for arms that carry one.
func (w WitnessView) Message() (MessageView, bool) {
	switch w.uv.VariantName() {
	case VariantSighashWithAction, VariantOtx:
	default:
		return MessageView{}, false
	}
	tv, _ := w.uv.Value().Table()
	f, ok := tv.FieldByName("message")
	if !ok {
		return MessageView{}, false
	}
	mtv, _ := f.Table()
	return MessageView{tv: mtv}, true
}
