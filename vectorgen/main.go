// Command vectorgen drives a scripted initiator/responder pair for a
// requested protocol name using fixed ephemeral keys, and prints the
// resulting messages, split keys, and handshake hash as JSON.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	noise "github.com/hackerproff/noise-c"

	flag "github.com/ogier/pflag"
)

type vector struct {
	Protocol      string   `json:"protocol"`
	InitiatorRole string   `json:"initiator_role"`
	ResponderRole string   `json:"responder_role"`
	Messages      []string `json:"messages"`
	InitiatorSend string   `json:"initiator_send_key"`
	InitiatorRecv string   `json:"initiator_recv_key"`
	HandshakeHash string   `json:"handshake_hash"`
	PayloadEchoed string   `json:"payload_echoed"`
}

func main() {
	protocol := flag.StringP("protocol", "p", "Noise_NN_25519_ChaChaPoly_BLAKE2s", "protocol name to drive")
	payload := flag.StringP("payload", "m", "vectorgen", "final payload to send from the responder")
	initSeed := flag.StringP("init-seed", "i", strings.Repeat("00", 32), "32-byte hex seed for the initiator's fixed ephemeral key")
	respSeed := flag.StringP("resp-seed", "r", strings.Repeat("80", 32), "32-byte hex seed for the responder's fixed ephemeral key")
	flag.Parse()

	name, err := noise.ParseProtocolName(*protocol)
	if err != nil {
		log.Fatalf("vectorgen: %v", err)
	}
	cs, err := noise.NewCipherSuiteFromName(name)
	if err != nil {
		log.Fatalf("vectorgen: %v", err)
	}

	v, err := run(name, cs, *payload, *initSeed, *respSeed)
	if err != nil {
		log.Fatalf("vectorgen: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("vectorgen: %v", err)
	}
}

func run(name noise.ProtocolName, cs noise.CipherSuite, payload, initSeedHex, respSeedHex string) (*vector, error) {
	initEph, err := cs.GenerateKeypair(hexReader(initSeedHex))
	if err != nil {
		return nil, err
	}
	respEph, err := cs.GenerateKeypair(hexReader(respSeedHex))
	if err != nil {
		return nil, err
	}

	pattern, err := lookupPattern(name.Pattern)
	if err != nil {
		return nil, err
	}

	initCfg := noise.Config{CipherSuite: cs, Pattern: pattern, Initiator: true, Psk: name.Psk}
	respCfg := noise.Config{CipherSuite: cs, Pattern: pattern, Initiator: false, Psk: name.Psk}
	if name.Psk {
		psk := make([]byte, 32)
		initCfg.PresharedKey, respCfg.PresharedKey = psk, psk
	}

	initiator, err := noise.NewHandshakeState(initCfg)
	if err != nil {
		return nil, err
	}
	responder, err := noise.NewHandshakeState(respCfg)
	if err != nil {
		return nil, err
	}
	initiator.FixedEphemeral(initEph)
	responder.FixedEphemeral(respEph)
	if err := initiator.Start(); err != nil {
		return nil, err
	}
	if err := responder.Start(); err != nil {
		return nil, err
	}

	var messages []string
	var send, recv *noise.CipherState
	var echoed []byte

	for initiator.Action() != noise.ActionSplit {
		if initiator.Action() == noise.ActionWriteMessage {
			msg, s, r, err := initiator.WriteMessage(nil, nil)
			if err != nil {
				return nil, err
			}
			messages = append(messages, hex.EncodeToString(msg))
			if s != nil {
				send, recv = s, r
			}
			if _, _, _, err := responder.ReadMessage(nil, msg); err != nil {
				return nil, err
			}
		} else {
			var out []byte
			if responder.Action() != noise.ActionWriteMessage {
				break
			}
			if responder.MessageIndex() == len(pattern.Messages)-1 {
				out = []byte(payload)
			}
			msg, s, r, err := responder.WriteMessage(nil, out)
			if err != nil {
				return nil, err
			}
			messages = append(messages, hex.EncodeToString(msg))
			if s != nil {
				send, recv = s, r
			}
			got, _, _, err := initiator.ReadMessage(nil, msg)
			if err != nil {
				return nil, err
			}
			if len(got) > 0 {
				echoed = got
			}
		}
	}

	return &vector{
		Protocol:      initiator.ProtocolID().String(),
		InitiatorRole: initiator.Role().String(),
		ResponderRole: responder.Role().String(),
		Messages:      messages,
		InitiatorSend: hex.EncodeToString(keyOf(send)),
		InitiatorRecv: hex.EncodeToString(keyOf(recv)),
		HandshakeHash: hex.EncodeToString(initiator.ChannelBinding()),
		PayloadEchoed: string(echoed),
	}, nil
}

func keyOf(cs *noise.CipherState) []byte {
	if cs == nil {
		return nil
	}
	k := cs.UnsafeKey()
	return k[:]
}

func lookupPattern(name string) (noise.HandshakePattern, error) {
	p, ok := noise.PatternByName(name)
	if !ok {
		return noise.HandshakePattern{}, fmt.Errorf("vectorgen: unknown handshake pattern %q", name)
	}
	return p, nil
}
