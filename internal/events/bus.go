package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventEntrySaved           EventType = "ENTRY_SAVED"
	EventEntryDeleted         EventType = "ENTRY_DELETED"
	EventEntrySettled         EventType = "ENTRY_SETTLED"
	EventAccountCreated       EventType = "ACCOUNT_CREATED"
	EventAccountStatusChanged EventType = "ACCOUNT_STATUS_CHANGED"
	EventAccountAssigned      EventType = "ACCOUNT_ASSIGNED"
	EventAgentUpdated         EventType = "AGENT_UPDATED"
	EventUserLogout           EventType = "USER_LOGOUT"
	EventError                EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishEntrySaved publishes an entry saved event
func (eb *EventBus) PublishEntrySaved(entryID, accountID, playerID string, entryDate string, profitLoss float64) {
	eb.Publish(Event{
		Type: EventEntrySaved,
		Data: map[string]interface{}{
			"entry_id":    entryID,
			"account_id":  accountID,
			"player_id":   playerID,
			"entry_date":  entryDate,
			"profit_loss": profitLoss,
		},
	})
}

// PublishEntryDeleted publishes an entry deleted event
func (eb *EventBus) PublishEntryDeleted(entryID, accountID string) {
	eb.Publish(Event{
		Type: EventEntryDeleted,
		Data: map[string]interface{}{
			"entry_id":   entryID,
			"account_id": accountID,
		},
	})
}

// PublishEntrySettled publishes a settlement update event
func (eb *EventBus) PublishEntrySettled(entryID, accountID, party string, settled bool, amount float64) {
	eb.Publish(Event{
		Type: EventEntrySettled,
		Data: map[string]interface{}{
			"entry_id":   entryID,
			"account_id": accountID,
			"party":      party,
			"settled":    settled,
			"amount":     amount,
		},
	})
}

// PublishAccountCreated publishes an account creation event
func (eb *EventBus) PublishAccountCreated(accountID string, accountType string, agentID string) {
	eb.Publish(Event{
		Type: EventAccountCreated,
		Data: map[string]interface{}{
			"account_id":   accountID,
			"account_type": accountType,
			"agent_id":     agentID,
		},
	})
}

// PublishAccountStatusChanged publishes an account status transition event
func (eb *EventBus) PublishAccountStatusChanged(accountID string, from, to string) {
	eb.Publish(Event{
		Type: EventAccountStatusChanged,
		Data: map[string]interface{}{
			"account_id": accountID,
			"from":       from,
			"to":         to,
		},
	})
}

// PublishAccountAssigned publishes a player assignment event
func (eb *EventBus) PublishAccountAssigned(accountID string, playerID string) {
	eb.Publish(Event{
		Type: EventAccountAssigned,
		Data: map[string]interface{}{
			"account_id": accountID,
			"player_id":  playerID,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}

// PublishUserLogout publishes a user logout event
func (eb *EventBus) PublishUserLogout(userID string) {
	eb.Publish(Event{
		Type: EventUserLogout,
		Data: map[string]interface{}{
			"user_id": userID,
		},
	})
}
