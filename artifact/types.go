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

import (
	"fmt"

	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/marshal"
)

// Action is one script invocation recorded in a witness: which script
// to run, which script info describes it, and the data handed to it.
type Action struct {
	ScriptInfoHash [32]byte
	ScriptHash     [32]byte
	Data           []byte
}

// Message groups the actions a signer commits to.
type Message struct {
	Actions []Action
}

// SighashWithAction is a witness arm carrying both a lock signature
// and the message it signs.
type SighashWithAction struct {
	Lock    []byte
	Message Message
}

// Sighash is a witness arm carrying only a lock signature.
type Sighash struct {
	Lock []byte
}

// OtxStart marks where a run of open transactions begins.
type OtxStart struct {
	StartInputCell  uint32
	StartOutputCell uint32
	StartCellDeps   uint32
	StartHeaderDeps uint32
}

// Otx is a witness arm for one open transaction: its lock, how many
// of each component it claims, and the message it signs.
type Otx struct {
	Lock        []byte
	InputCells  uint32
	OutputCells uint32
	CellDeps    uint32
	HeaderDeps  uint32
	Message     Message
}

// Encode serializes the action.
func (a Action) Encode() ([]byte, error) {
	return marshal.Marshal(Type("Action"), a)
}

// DecodeAction verifies and decodes an action.
func DecodeAction(buf []byte) (Action, error) {
	var a Action
	err := marshal.Unmarshal(Type("Action"), buf, &a)
	return a, err
}

// Encode serializes the message.
func (m Message) Encode() ([]byte, error) {
	return marshal.Marshal(Type("Message"), m)
}

// DecodeMessage verifies and decodes a message.
func DecodeMessage(buf []byte) (Message, error) {
	var m Message
	err := marshal.Unmarshal(Type("Message"), buf, &m)
	return m, err
}

// Witness is a decoded ExtendedWitness. Exactly one of the arm
// fields is set, named by Variant. An unknown arm decoded in
// passthrough mode leaves Variant empty and holds the raw payload.
type Witness struct {
	Variant string
	ID      uint32

	SighashWithAction *SighashWithAction
	Sighash           *Sighash
	Otx               *Otx
	OtxStart          *OtxStart

	// Raw is the payload of an unknown arm.
	Raw []byte
}

// WitnessOf wraps one arm value into an encoded ExtendedWitness.
func WitnessOf(variant string, v interface{}) ([]byte, error) {
	return marshal.Marshal(Type("ExtendedWitness"), marshal.Union{Variant: variant, Value: v})
}

// Encode serializes the witness arm that is set.
func (w Witness) Encode() ([]byte, error) {
	switch {
	case w.SighashWithAction != nil:
		return WitnessOf(VariantSighashWithAction, *w.SighashWithAction)
	case w.Sighash != nil:
		return WitnessOf(VariantSighash, *w.Sighash)
	case w.Otx != nil:
		return WitnessOf(VariantOtx, *w.Otx)
	case w.OtxStart != nil:
		return WitnessOf(VariantOtxStart, *w.OtxStart)
	}
	return nil, fmt.Errorf("%w: witness has no arm set", codec.ErrUnknownVariant)
}

// DecodeWitness verifies and decodes an ExtendedWitness.
func DecodeWitness(buf []byte) (Witness, error) {
	return DecodeWitnessOpts(buf, codec.DecodeOptions{})
}

// DecodeWitnessOpts is DecodeWitness with non-default options; with
// PassthroughUnions set, unknown arms decode into Raw.
func DecodeWitnessOpts(buf []byte, opts codec.DecodeOptions) (Witness, error) {
	var u marshal.Union
	if err := marshal.UnmarshalOpts(Type("ExtendedWitness"), buf, &u, opts); err != nil {
		return Witness{}, err
	}

	w := Witness{Variant: u.Variant, ID: u.ID}
	switch u.Variant {
	case VariantSighashWithAction:
		var arm SighashWithAction
		if err := marshal.Unmarshal(Type(u.Variant), u.Raw, &arm); err != nil {
			return Witness{}, err
		}
		w.SighashWithAction = &arm
	case VariantSighash:
		var arm Sighash
		if err := marshal.Unmarshal(Type(u.Variant), u.Raw, &arm); err != nil {
			return Witness{}, err
		}
		w.Sighash = &arm
	case VariantOtx:
		var arm Otx
		if err := marshal.Unmarshal(Type(u.Variant), u.Raw, &arm); err != nil {
			return Witness{}, err
		}
		w.Otx = &arm
	case VariantOtxStart:
		var arm OtxStart
		if err := marshal.Unmarshal(Type(u.Variant), u.Raw, &arm); err != nil {
			return Witness{}, err
		}
		w.OtxStart = &arm
	default:
		w.Raw = u.Raw
	}
	return w, nil
}
