package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"bus-tracking-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Константы для типов сообщений WebSocket
const (
	BusLocationUpdateType = "BUS_LOCATION_UPDATE"
)

// WebSocketMessage представляет формат сообщения WebSocket
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketManager управляет всеми подключениями WebSocket.
// Зрители карты получают обновления позиций всех автобусов, поэтому
// рассылка всегда широковещательная, без адресации по пользователям.
// Под одним client_id может жить несколько соединений одновременно,
// в частности старое и новое при переподключении зрителя.
type WebSocketManager struct {
	clients    map[string]map[*WebSocketClient]bool
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mutex      sync.RWMutex
}

// WebSocketClient представляет клиентское соединение WebSocket
type WebSocketClient struct {
	conn     *websocket.Conn
	clientID string
	writeMu  sync.Mutex
}

// send пишет сообщение в соединение под мьютексом:
// gorilla/websocket запрещает конкурентные WriteMessage,
// а сюда пишут и горутины рассылки, и ответ на ping
func (c *WebSocketClient) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Глобальный менеджер WebSocket
var wsManager = NewWebSocketManager()

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*WebSocketClient]bool),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
	}
}

// Start запускает обработку регистраций WebSocket
func (manager *WebSocketManager) Start() {
	log.Printf("Запуск WebSocket Manager")
	go func() {
		for {
			select {
			case client := <-manager.register:
				manager.mutex.Lock()
				if _, ok := manager.clients[client.clientID]; !ok {
					manager.clients[client.clientID] = make(map[*WebSocketClient]bool)
				}
				manager.clients[client.clientID][client] = true
				manager.mutex.Unlock()
				middleware.WebSocketClients.Inc()
				log.Printf("Зарегистрирован новый клиент: %s", client.clientID)

			case client := <-manager.unregister:
				manager.mutex.Lock()
				// Удаляем именно это соединение, а не любое с тем же
				// client_id: отложенный unregister старого соединения
				// не должен закрывать новое после переподключения
				if conns, ok := manager.clients[client.clientID]; ok {
					if _, exists := conns[client]; exists {
						delete(conns, client)
						client.conn.Close()
						middleware.WebSocketClients.Dec()
						log.Printf("Клиент %s отключен", client.clientID)
					}
					if len(conns) == 0 {
						delete(manager.clients, client.clientID)
					}
				}
				manager.mutex.Unlock()
			}
		}
	}()
}

// ClientCount возвращает количество активных соединений
func (manager *WebSocketManager) ClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	count := 0
	for _, conns := range manager.clients {
		count += len(conns)
	}
	return count
}

// BroadcastToAll отправляет сообщение всем подключенным клиентам
func (manager *WebSocketManager) BroadcastToAll(message *WebSocketMessage) {
	manager.mutex.RLock()
	targets := make([]*WebSocketClient, 0, len(manager.clients))
	for _, conns := range manager.clients {
		for client := range conns {
			targets = append(targets, client)
		}
	}
	manager.mutex.RUnlock()

	if len(targets) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		log.Printf("BroadcastToAll: Ошибка при кодировании сообщения: %v", err)
		return
	}

	for _, client := range targets {
		go func(c *WebSocketClient) {
			if err := c.send(jsonMessage); err != nil {
				log.Printf("BroadcastToAll: Ошибка при отправке сообщения клиенту %s: %v", c.clientID, err)
				// Отключаем клиента при ошибке отправки
				manager.unregister <- c
			}
		}(client)
	}
}

// Handler обрабатывает подключения WebSocket
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Проверяем, что это действительно запрос на установление WebSocket соединения
		if c.GetHeader("Upgrade") != "websocket" {
			c.String(http.StatusBadRequest, "Требуется WebSocket соединение")
			return
		}

		clientID := c.Query("client_id")
		if clientID == "" {
			clientID = uuid.New().String()
		}

		wsUpgrader := websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Разрешаем подключения с любых источников
			},
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		client := &WebSocketClient{
			conn:     conn,
			clientID: clientID,
		}

		wsManager.register <- client

		go handleMessages(client)
	}
}

// handleMessages обрабатывает сообщения от клиента
func handleMessages(client *WebSocketClient) {
	defer func() {
		wsManager.unregister <- client
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		// Обрабатываем ping-сообщения
		if msgType, ok := data["type"].(string); ok && msgType == "ping" {
			pongMsg := map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			}
			pongJSON, _ := json.Marshal(pongMsg)
			if err := client.send(pongJSON); err != nil {
				log.Printf("Ошибка при отправке pong клиенту %s: %v", client.clientID, err)
			}
		}
	}
}

// SendBusLocationUpdate рассылает обновление позиции автобуса всем зрителям
func SendBusLocationUpdate(busID string, lat, lng float64, updatedAt time.Time) {
	payload := map[string]interface{}{
		"busId":     busID,
		"latitude":  lat,
		"longitude": lng,
		"updatedAt": updatedAt,
	}
	message := &WebSocketMessage{
		Type:    BusLocationUpdateType,
		Payload: payload,
	}
	wsManager.BroadcastToAll(message)
}

// GetManager возвращает глобальный экземпляр менеджера WebSocket
func GetManager() *WebSocketManager {
	return wsManager
}

// StartManager запускает менеджер WebSocket
func StartManager() {
	wsManager.Start()
}
