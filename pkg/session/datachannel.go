package session

import (
	"strconv"

	"github.com/pion/datachannel"
	"github.com/pion/logging"
	"github.com/pion/sctp"
)

// DataChannel is a bidirectional message channel over one SCTP stream.
// Channels are negotiated: both sides know the stream id and properties up
// front, so no in-band DCEP open is exchanged.
type DataChannel struct {
	dc *datachannel.DataChannel
	id uint16
}

// newDataChannel wraps an accepted SCTP stream as a negotiated channel.
func newDataChannel(stream *sctp.Stream, loggerFactory logging.LoggerFactory) (*DataChannel, error) {
	id := stream.StreamIdentifier()
	dc, err := datachannel.Client(stream, &datachannel.Config{
		ChannelType:   datachannel.ChannelTypeReliable,
		Negotiated:    true,
		Label:         strconv.Itoa(int(id)),
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return nil, err
	}
	return &DataChannel{dc: dc, id: id}, nil
}

// StreamID returns the SCTP stream identifier shared by both directions.
func (c *DataChannel) StreamID() uint16 {
	return c.id
}

// Label returns the channel label.
func (c *DataChannel) Label() string {
	return c.dc.Config.Label
}

// Read reads a message payload, ignoring its type.
func (c *DataChannel) Read(p []byte) (int, error) {
	return c.dc.Read(p)
}

// ReadMessage reads one message and reports whether it was a string message.
func (c *DataChannel) ReadMessage(p []byte) (int, bool, error) {
	return c.dc.ReadDataChannel(p)
}

// Write sends p as a binary message.
func (c *DataChannel) Write(p []byte) (int, error) {
	return c.dc.Write(p)
}

// WriteMessage sends one message, as text when isString is set.
func (c *DataChannel) WriteMessage(p []byte, isString bool) (int, error) {
	return c.dc.WriteDataChannel(p, isString)
}

// Close closes the underlying stream.
func (c *DataChannel) Close() error {
	return c.dc.Close()
}
