package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderBook holds the raw bids and offers submitted for one time slot.
type OrderBook struct {
	Bids   []Payload `json:"bids" yaml:"bids"`
	Offers []Payload `json:"offers" yaml:"offers"`
}

// SlotBook associates a time slot with its order book.
type SlotBook struct {
	TimeSlot string
	Book     OrderBook
}

// MarketBooks lists the slots of one market in submission order.
type MarketBooks struct {
	MarketID string
	Slots    []SlotBook
}

// MatchingData is the batch input: markets, then time slots, each kept in the
// order they appear in the source document. It decodes from and encodes to the
// nested object form {"market": {"slot": {"bids": [], "offers": []}}}.
type MatchingData []MarketBooks

// ErrMalformedInput is returned when the batch document is not a nested object.
var ErrMalformedInput = errors.New("malformed matching data")

// SlotCount returns the total number of (market, slot) pairs.
func (d MatchingData) SlotCount() int {
	n := 0
	for _, m := range d {
		n += len(m.Slots)
	}
	return n
}

// ParseMatchingData decodes a JSON document keeping key order.
func ParseMatchingData(data []byte) (MatchingData, error) {
	var md MatchingData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return md, nil
}

// ParseMatchingDataYAML decodes a YAML document keeping key order.
func ParseMatchingDataYAML(data []byte) (MatchingData, error) {
	var md MatchingData
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return md, nil
}

// UnmarshalJSON implements json.Unmarshaler. Numbers inside payloads are kept
// as json.Number so identifiers and values are echoed without loss.
func (d *MatchingData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	var out MatchingData
	for dec.More() {
		marketID, err := readKey(dec)
		if err != nil {
			return err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("market %s: %w", marketID, err)
		}
		market := MarketBooks{MarketID: marketID}
		for dec.More() {
			slot, err := readKey(dec)
			if err != nil {
				return err
			}
			var book OrderBook
			if err := dec.Decode(&book); err != nil {
				return fmt.Errorf("market %s slot %s: %w", marketID, slot, err)
			}
			market.Slots = append(market.Slots, SlotBook{TimeSlot: slot, Book: book})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		out = append(out, market)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON implements json.Marshaler and preserves market and slot order.
func (d MatchingData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, m.MarketID); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, s := range m.Slots {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, s.TimeSlot); err != nil {
				return nil, err
			}
			book := s.Book
			if book.Bids == nil {
				book.Bids = []Payload{}
			}
			if book.Offers == nil {
				book.Offers = []Payload{}
			}
			b, err := json.Marshal(book)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler using the node tree, which keeps
// mapping keys in document order.
func (d *MatchingData) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %w", node.Line, ErrMalformedInput)
	}
	var out MatchingData
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.MappingNode {
			return fmt.Errorf("market %s: %w", key.Value, ErrMalformedInput)
		}
		market := MarketBooks{MarketID: key.Value}
		for j := 0; j+1 < len(val.Content); j += 2 {
			slotKey, slotVal := val.Content[j], val.Content[j+1]
			var book OrderBook
			if err := slotVal.Decode(&book); err != nil {
				return fmt.Errorf("market %s slot %s: %w", key.Value, slotKey.Value, err)
			}
			market.Slots = append(market.Slots, SlotBook{TimeSlot: slotKey.Value, Book: book})
		}
		out = append(out, market)
	}
	*d = out
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q got %v: %w", want, tok, ErrMalformedInput)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key got %v: %w", tok, ErrMalformedInput)
	}
	return key, nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
