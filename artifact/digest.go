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

import "github.com/tabwire/tabwire/digest"

// Digest returns the message's digest under the variable framing
// rule: the encoded message hashed behind its length.
func (m Message) Digest() (digest.Digest, error) {
	buf, err := m.Encode()
	if err != nil {
		return digest.Digest{}, err
	}
	h := digest.New()
	h.WriteVar(buf)
	return h.Digest(), nil
}

// SkeletonDigest binds the fixed transaction hash and the witnesses
// that ride alongside the signed one. Witnesses are variable size and
// hash behind their lengths, so reordering or resegmenting them
// changes the digest.
func SkeletonDigest(txHash [32]byte, witnesses ...[]byte) digest.Digest {
	h := digest.New()
	h.WriteFixed(txHash[:])
	for _, w := range witnesses {
		h.WriteVar(w)
	}
	return h.Digest()
}

// FinalDigest is what a signer actually signs: the skeleton digest
// followed by the encoded message under the variable framing rule.
func FinalDigest(skeleton digest.Digest, m Message) (digest.Digest, error) {
	buf, err := m.Encode()
	if err != nil {
		return digest.Digest{}, err
	}
	h := digest.New()
	h.WriteFixed(skeleton[:])
	h.WriteVar(buf)
	return h.Digest(), nil
}

// WitnessDigest digests an encoded witness under the variable
// framing rule.
func WitnessDigest(buf []byte) digest.Digest {
	h := digest.New()
	h.WriteVar(buf)
	return h.Digest()
}
