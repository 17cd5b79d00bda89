package transport

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// OpenWebsocket dials a websocket endpoint exchanging binary messages.
// Frame boundaries on the websocket are irrelevant, the byte stream is
// delimited by the framing layer.
func OpenWebsocket(u *url.URL, bufSize int) (*Stream, error) {
	origin := "http://localhost/"
	if val := u.Query().Get("origin"); val != "" {
		origin = val
	}
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return NewStream("ws:"+u.Host, conn, bufSize), nil
}

// WebsocketHandler serves each websocket client as a Stream. fn owns the
// stream and must run it; the connection is closed when fn returns.
func WebsocketHandler(bufSize int, fn func(*Stream)) websocket.Handler {
	return func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		fn(NewStream("ws:"+conn.Request().RemoteAddr, conn, bufSize))
	}
}
