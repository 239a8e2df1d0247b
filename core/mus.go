package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for the persisted domain types, in the MUS format.
// Times are stored as Unix microseconds.

var (
	IDMUS          = idMUS{}
	MessageTypeMUS = messageTypeMUS{}
	MessageMUS     = messageMUS{}

	stringSliceMUS = ord.NewSliceSer[string](ord.String)
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	raw, n, err := varint.Uint64.Unmarshal(bs)
	return ID(raw), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type messageTypeMUS struct{}

func (messageTypeMUS) Marshal(v MessageType, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (messageTypeMUS) Unmarshal(bs []byte) (v MessageType, n int, err error) {
	raw, n, err := ord.String.Unmarshal(bs)
	return MessageType(raw), n, err
}

func (messageTypeMUS) Size(v MessageType) int {
	return ord.String.Size(string(v))
}

func (messageTypeMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type messageMUS struct{}

func (messageMUS) Marshal(m Message, bs []byte) (n int) {
	n = IDMUS.Marshal(m.Id, bs)
	n += ord.String.Marshal(m.SourceType, bs[n:])
	n += ord.String.Marshal(m.SourceChatID, bs[n:])
	n += ord.String.Marshal(m.SourceMessageID, bs[n:])
	n += ord.String.Marshal(m.SenderName, bs[n:])
	n += ord.String.Marshal(m.SenderID, bs[n:])
	n += ord.String.Marshal(m.Content, bs[n:])
	n += MessageTypeMUS.Marshal(m.MessageType, bs[n:])
	n += varint.Int64.Marshal(m.Timestamp.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(m.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(m.UpdatedAt.UnixMicro(), bs[n:])
	n += stringSliceMUS.Marshal(m.Categories, bs[n:])
	n += stringSliceMUS.Marshal(m.Tags, bs[n:])
	n += varint.Float64.Marshal(m.Sentiment, bs[n:])
	n += ord.String.Marshal(m.Summary, bs[n:])
	n += ord.String.Marshal(m.EmbeddingID, bs[n:])
	n += ord.Bool.Marshal(m.HasEmbedding, bs[n:])
	n += ord.Bool.Marshal(m.Enriched, bs[n:])
	n += ord.String.Marshal(m.EnrichmentError, bs[n:])
	return n
}

func (messageMUS) Unmarshal(bs []byte) (m Message, n int, err error) {
	var n1 int
	if m.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if m.SourceType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.SourceChatID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.SourceMessageID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.SenderName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.SenderID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.MessageType, n1, err = MessageTypeMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	m.Timestamp = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	m.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	m.UpdatedAt = time.UnixMicro(micros).UTC()
	if m.Categories, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Tags, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Sentiment, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.EmbeddingID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.HasEmbedding, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Enriched, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.EnrichmentError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	return m, n, nil
}

func (messageMUS) Size(m Message) (size int) {
	size = IDMUS.Size(m.Id)
	size += ord.String.Size(m.SourceType)
	size += ord.String.Size(m.SourceChatID)
	size += ord.String.Size(m.SourceMessageID)
	size += ord.String.Size(m.SenderName)
	size += ord.String.Size(m.SenderID)
	size += ord.String.Size(m.Content)
	size += MessageTypeMUS.Size(m.MessageType)
	size += varint.Int64.Size(m.Timestamp.UnixMicro())
	size += varint.Int64.Size(m.CreatedAt.UnixMicro())
	size += varint.Int64.Size(m.UpdatedAt.UnixMicro())
	size += stringSliceMUS.Size(m.Categories)
	size += stringSliceMUS.Size(m.Tags)
	size += varint.Float64.Size(m.Sentiment)
	size += ord.String.Size(m.Summary)
	size += ord.String.Size(m.EmbeddingID)
	size += ord.Bool.Size(m.HasEmbedding)
	size += ord.Bool.Size(m.Enriched)
	size += ord.String.Size(m.EnrichmentError)
	return size
}

func (s messageMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
