package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	UserID          int64
	SessionID       int64
	Conn            *websocket.Conn
	PubSub          *redis.PubSub
	LocalChannel    chan string
	CurrentServerID int64
	Ctx             context.Context
	mutex           sync.Mutex
}

var clients = make(map[int64]*Client)
var clientsMutex sync.Mutex

var sugar *zap.SugaredLogger
var redisClient *redis.Client
var redisCtx = context.Background()
var selfContained = true
var localPubSub = NewLocalPubSub()

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Setup picks redis pub/sub for fan out, or the in process one when self contained.
func Setup(_sugar *zap.SugaredLogger, _redisClient *redis.Client, _selfContained bool) {
	sugar = _sugar
	redisClient = _redisClient
	selfContained = _selfContained || _redisClient == nil
}

func key(channelType string, id int64) string {
	return fmt.Sprintf("%s:%d", channelType, id)
}

func HandleClient(w http.ResponseWriter, r *http.Request, userID int64, sessionID int64) {
	sugar.Debugf("Connecting user ID [%d] to WebSocket as session ID [%d]", userID, sessionID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sugar.Error(err)
		return
	}
	defer conn.Close()

	clientCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &Client{
		UserID:       userID,
		SessionID:    sessionID,
		Conn:         conn,
		LocalChannel: make(chan string, 64),
		Ctx:          clientCtx,
	}

	var incoming <-chan *redis.Message
	if !selfContained {
		client.PubSub = redisClient.Subscribe(clientCtx)
		defer client.PubSub.Close()
		incoming = client.PubSub.Channel()
	}

	setClient(client)
	defer deleteClient(sessionID)

	// forwards published messages to the websocket
	go func() {
		for {
			var message string
			select {
			case <-clientCtx.Done():
				return
			case message = <-client.LocalChannel:
			case msg, ok := <-incoming:
				if !ok {
					return
				}
				message = msg.Payload
			}

			err := conn.WriteMessage(websocket.TextMessage, []byte(message))
			if err != nil {
				sugar.Debug(err)
				cancel()
				return
			}
		}
	}()

	// reading only to notice the client going away
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			sugar.Debug(err)
			break
		}
	}
}

func setClient(client *Client) {
	sugar.Debugf("Adding user ID [%d] to clients as session ID [%d]", client.UserID, client.SessionID)
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	clients[client.SessionID] = client
}

func deleteClient(sessionID int64) {
	sugar.Debugf("Removing session ID [%d] from clients", sessionID)
	clientsMutex.Lock()
	delete(clients, sessionID)
	clientsMutex.Unlock()

	localPubSub.UnsubscribeFromAll(sessionID)
}

func GetClient(sessionID int64) (*Client, bool) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	client, exists := clients[sessionID]
	return client, exists
}

// Subscribe makes the session receive events of the given channel type and ID.
// A session watches one server at a time, subscribing to another replaces it.
func Subscribe(id int64, channelType string, sessionID int64) error {
	client, exists := GetClient(sessionID)
	if !exists {
		return fmt.Errorf("session ID [%d] tried to subscribe to %s [%d] but the session isn't connected to hub", sessionID, channelType, id)
	}

	client.mutex.Lock()
	defer client.mutex.Unlock()

	switch channelType {
	case ChannelTypeServer:
		if client.CurrentServerID != 0 && client.CurrentServerID != id {
			err := unsubscribe(client, key(channelType, client.CurrentServerID))
			if err != nil {
				return err
			}
		}
		client.CurrentServerID = id
	case ChannelTypeServerList, ChannelTypeCategories:
		// lists stay in view, nothing to leave
	default:
		return fmt.Errorf("unknown channel type %q", channelType)
	}

	newKey := key(channelType, id)
	if selfContained {
		localPubSub.Subscribe(newKey, sessionID)
	} else {
		err := client.PubSub.Subscribe(client.Ctx, newKey)
		if err != nil {
			return err
		}
	}

	sugar.Debugf("Session ID %d subscribed to %s", sessionID, newKey)
	return nil
}

func unsubscribe(client *Client, oldKey string) error {
	sugar.Debugf("Session ID %d unsubscribed from %s", client.SessionID, oldKey)
	if selfContained {
		localPubSub.Unsubscribe(oldKey, client.SessionID)
		return nil
	}
	return client.PubSub.Unsubscribe(client.Ctx, oldKey)
}

// PrepareMessage frames a message as its type, a newline and the JSON payload.
func PrepareMessage(messageType string, payload any) (string, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(len(messageType) + 1 + len(jsonBytes))
	buf.WriteString(messageType)
	buf.WriteByte('\n')
	buf.Write(jsonBytes)

	return buf.String(), nil
}

func Emit(messageType string, channelType string, payload any, id int64) error {
	channel := key(channelType, id)

	message, err := PrepareMessage(messageType, payload)
	if err != nil {
		return err
	}

	sugar.Debugf("Sending %s to those on channel %s", messageType, channel)

	if !selfContained {
		return redisClient.Publish(redisCtx, channel, message).Err()
	}

	for _, sessionID := range localPubSub.Subscribers(channel) {
		client, exists := GetClient(sessionID)
		if !exists {
			sugar.Warnf("Session ID %d is supposed to be available", sessionID)
			continue
		}

		select {
		case client.LocalChannel <- message:
		default:
			sugar.Warnf("Dropping %s for session ID %d, its queue is full", messageType, sessionID)
		}
	}

	return nil
}
