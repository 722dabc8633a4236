package traci

import (
	"bufio"
	"context"
	"fmt"
	"net"
)

// Client is a TraCI connection to a running SUMO instance. It is not safe for concurrent use:
// every request waits for its response on the same stream.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

func (c *Client) roundTrip(cmdID uint8, content []byte) (*storage, error) {
	if _, err := c.conn.Write(encodeMessage(encodeCommand(cmdID, content))); err != nil {
		return nil, err
	}
	res, err := readMessage(c.r)
	if err != nil {
		return nil, err
	}
	if err := res.readStatus(cmdID); err != nil {
		return nil, err
	}
	return res, nil
}

// getVariable issues a get command and positions the result at the value of wantType.
func (c *Client) getVariable(cmdID, varID uint8, objectID string, wantType uint8) (*storage, error) {
	w := &writer{}
	w.putUbyte(varID).putString(objectID)
	res, err := c.roundTrip(cmdID, w.payload())
	if err != nil {
		return nil, err
	}
	if _, err := res.readLength(); err != nil {
		return nil, err
	}
	respID, err := res.readUbyte()
	if err != nil {
		return nil, err
	}
	if respID != cmdID+responseOffset {
		return nil, fmt.Errorf("%w: response 0x%02x to command 0x%02x", ErrProtocol, respID, cmdID)
	}
	gotVar, err := res.readUbyte()
	if err != nil {
		return nil, err
	}
	if gotVar != varID {
		return nil, fmt.Errorf("%w: variable 0x%02x, expected 0x%02x", ErrProtocol, gotVar, varID)
	}
	gotObj, err := res.readString()
	if err != nil {
		return nil, err
	}
	if gotObj != objectID {
		return nil, fmt.Errorf("%w: object %q, expected %q", ErrProtocol, gotObj, objectID)
	}
	typ, err := res.readUbyte()
	if err != nil {
		return nil, err
	}
	if typ != wantType {
		return nil, fmt.Errorf("%w: type 0x%02x, expected 0x%02x", ErrProtocol, typ, wantType)
	}
	return res, nil
}

func (c *Client) getDouble(cmdID, varID uint8, objectID string) (float64, error) {
	res, err := c.getVariable(cmdID, varID, objectID, TypeDouble)
	if err != nil {
		return 0, err
	}
	return res.readDouble()
}

func (c *Client) getInt(cmdID, varID uint8, objectID string) (int, error) {
	res, err := c.getVariable(cmdID, varID, objectID, TypeInteger)
	if err != nil {
		return 0, err
	}
	v, err := res.readInt()
	return int(v), err
}

func (c *Client) getString(cmdID, varID uint8, objectID string) (string, error) {
	res, err := c.getVariable(cmdID, varID, objectID, TypeString)
	if err != nil {
		return "", err
	}
	return res.readString()
}

func (c *Client) getStringList(cmdID, varID uint8, objectID string) ([]string, error) {
	res, err := c.getVariable(cmdID, varID, objectID, TypeStringList)
	if err != nil {
		return nil, err
	}
	return res.readStringList()
}

// Version returns the TraCI API level and the SUMO version string.
func (c *Client) Version() (int, string, error) {
	res, err := c.roundTrip(CmdGetVersion, nil)
	if err != nil {
		return 0, "", err
	}
	if _, err := res.readLength(); err != nil {
		return 0, "", err
	}
	if _, err := res.readUbyte(); err != nil {
		return 0, "", err
	}
	api, err := res.readInt()
	if err != nil {
		return 0, "", err
	}
	version, err := res.readString()
	return int(api), version, err
}

// SimulationStep advances the simulation. targetTime 0 performs exactly one step.
func (c *Client) SimulationStep(targetTime float64) error {
	w := &writer{}
	w.putDouble(targetTime)
	res, err := c.roundTrip(CmdSimStep, w.payload())
	if err != nil {
		return err
	}
	// subscription results follow; pathsync never subscribes
	if res.remaining() >= 4 {
		if _, err := res.readInt(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SimulationTime() (float64, error) {
	return c.getDouble(CmdGetSimVariable, VarTime, "")
}

func (c *Client) EdgeIDList() ([]string, error) {
	return c.getStringList(CmdGetEdgeVariable, VarIDList, "")
}

func (c *Client) EdgeTravelTime(edgeID string) (float64, error) {
	return c.getDouble(CmdGetEdgeVariable, VarCurrentTravelTime, edgeID)
}

func (c *Client) EdgeHaltingNumber(edgeID string) (int, error) {
	return c.getInt(CmdGetEdgeVariable, VarHaltingNumber, edgeID)
}

func (c *Client) SetEdgeMaxSpeed(edgeID string, speed float64) error {
	w := &writer{}
	w.putUbyte(VarMaxSpeed).putString(edgeID).putUbyte(TypeDouble).putDouble(speed)
	_, err := c.roundTrip(CmdSetEdgeVariable, w.payload())
	return err
}

func (c *Client) TrafficLightIDList() ([]string, error) {
	return c.getStringList(CmdGetTLVariable, VarIDList, "")
}

func (c *Client) TrafficLightControlledLanes(tlsID string) ([]string, error) {
	return c.getStringList(CmdGetTLVariable, VarTLControlledLanes, tlsID)
}

func (c *Client) TrafficLightState(tlsID string) (string, error) {
	return c.getString(CmdGetTLVariable, VarTLRedYellowGreen, tlsID)
}

// Close asks SUMO to end the session and closes the connection.
func (c *Client) Close() error {
	_, err := c.roundTrip(CmdClose, nil)
	cerr := c.conn.Close()
	if err != nil {
		return err
	}
	return cerr
}
