package glpi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	devicedomain "device-maintenance/backend/internal/device/domain"
)

// componentKeys names the dropdown holding the model name when an item has no designation.
var componentKeys = map[string]string{
	"Item_DeviceProcessor":   "deviceprocessors_id",
	"Item_DeviceMemory":      "devicememories_id",
	"Item_DeviceHardDrive":   "deviceharddrives_id",
	"Item_DeviceNetworkCard": "devicenetworkcards_id",
	"Item_DeviceGraphicCard": "devicegraphiccards_id",
	"Item_DeviceMotherboard": "devicemotherboards_id",
	"Item_DevicePowerSupply": "devicepowersupplies_id",
}

// ToDevice maps a raw computer to a Device. ok is false when the payload has no usable id.
func ToDevice(raw json.RawMessage) (d *devicedomain.Device, ok bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	id, ok := intValue(m["id"])
	if !ok {
		return nil, false
	}
	name := dropdown(m["name"])
	if name == "" {
		name = fmt.Sprintf("Computer-%d", id)
	}
	return &devicedomain.Device{
		GLPIID:   id,
		Name:     name,
		Entity:   dropdown(m["entities_id"]),
		AssetTag: dropdown(m["otherserial"]),
		Serial:   dropdown(m["serial"]),
		Location: dropdown(m["locations_id"]),
		Status:   dropdown(m["states_id"]),
		GLPIData: raw,
	}, true
}

// ToComponent maps a raw item of itemType. ItemType is stored without the Item_Device prefix.
func ToComponent(itemType string, raw json.RawMessage) *devicedomain.Component {
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	name := dropdown(m["designation"])
	if name == "" {
		name = dropdown(m["name"])
	}
	if name == "" {
		name = dropdown(m[componentKeys[itemType]])
	}
	return &devicedomain.Component{
		ItemType:     strings.TrimPrefix(itemType, "Item_Device"),
		Name:         name,
		Manufacturer: dropdown(m["manufacturers_id"]),
		Model:        dropdown(m["devicemodels_id"]),
		Serial:       dropdown(m["serial"]),
		Capacity:     dropdown(m["size"]),
		GLPIData:     raw,
	}
}

// dropdown renders a GLPI field. With expand_dropdowns a foreign key may come back as a string,
// a number, or an object with completename/name/label/id.
func dropdown(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, k := range []string{"completename", "name", "label"} {
			if s := dropdown(t[k]); s != "" {
				return s
			}
		}
		if id, ok := t["id"]; ok && id != nil {
			return dropdown(id)
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func intValue(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), t == float64(int64(t))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}
