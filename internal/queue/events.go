package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the social stream
const (
	EventFriendRequestSent     = "friend_request"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestRejected = "friend_request_rejected"
	EventFriendRemoved         = "friend_removed"
	EventMoodPostCreated       = "mood_post_created"
	EventMoodPostDeleted       = "mood_post_deleted"
)

const (
	StreamSocial = "stream:social"

	ConsumerGroupLive = "live_workers"
)

// SocialEvent is a "something changed" notice. It carries ids only; readers
// fetch current state themselves.
type SocialEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// ActorID is the user whose action produced the event.
	ActorID int64 `json:"actor_id"`
	// TargetID is the directly affected user, zero for fan-out events.
	TargetID int64 `json:"target_id,omitempty"`

	RequestID int64 `json:"request_id,omitempty"`
	PostID    int64 `json:"post_id,omitempty"`
}

func NewFriendRequestSentEvent(requestID, senderID, receiverID int64) SocialEvent {
	return SocialEvent{
		Type:      EventFriendRequestSent,
		Timestamp: time.Now().Unix(),
		ActorID:   senderID,
		TargetID:  receiverID,
		RequestID: requestID,
	}
}

// NewFriendRequestAnsweredEvent notifies the original sender of the receiver's decision.
func NewFriendRequestAnsweredEvent(requestID, receiverID, senderID int64, accepted bool) SocialEvent {
	eventType := EventFriendRequestRejected
	if accepted {
		eventType = EventFriendRequestAccepted
	}
	return SocialEvent{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		ActorID:   receiverID,
		TargetID:  senderID,
		RequestID: requestID,
	}
}

func NewFriendRemovedEvent(userID, friendID int64) SocialEvent {
	return SocialEvent{
		Type:      EventFriendRemoved,
		Timestamp: time.Now().Unix(),
		ActorID:   userID,
		TargetID:  friendID,
	}
}

// NewMoodPostCreatedEvent is fanned out to every friend of the author.
func NewMoodPostCreatedEvent(postID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventMoodPostCreated,
		Timestamp: time.Now().Unix(),
		ActorID:   authorID,
		PostID:    postID,
	}
}

func NewMoodPostDeletedEvent(postID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventMoodPostDeleted,
		Timestamp: time.Now().Unix(),
		ActorID:   authorID,
		PostID:    postID,
	}
}

// ToMap converts the event to stream field-values. The JSON body lives in "data".
func (e SocialEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

func ParseSocialEvent(values map[string]interface{}) (SocialEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return SocialEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event SocialEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return SocialEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
