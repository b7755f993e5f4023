package remo

// User is the account owning the access token.
type User struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Device is a Remo hub. NewestEvents holds the latest sensor readings keyed by
// sensor kind ("te", "hu", "il", "mo").
type Device struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	MacAddress        string           `json:"mac_address"`
	SerialNumber      string           `json:"serial_number,omitempty"`
	FirmwareVersion   string           `json:"firmware_version,omitempty"`
	TemperatureOffset float64          `json:"temperature_offset,omitempty"`
	HumidityOffset    float64          `json:"humidity_offset,omitempty"`
	NewestEvents      map[string]Event `json:"newest_events,omitempty"`
}

// Event is a single sensor reading.
type Event struct {
	Val       float64 `json:"val"`
	CreatedAt string  `json:"created_at"`
}

// Sensor event keys used in Device.NewestEvents.
const (
	EventTemperature = "te"
	EventHumidity    = "hu"
	EventIlluminance = "il"
	EventMovement    = "mo"
)

// Appliance is a controllable appliance registered to a Remo device. Only the
// section matching the appliance kind is populated.
type Appliance struct {
	ID         string          `json:"id"`
	Type       string          `json:"type,omitempty"`
	Nickname   string          `json:"nickname"`
	Image      string          `json:"image,omitempty"`
	Device     *Device         `json:"device,omitempty"`
	AirCon     *AirCon         `json:"aircon,omitempty"`
	Settings   *AirConSettings `json:"settings,omitempty"`
	Light      *Light          `json:"light,omitempty"`
	SmartMeter *SmartMeter     `json:"smart_meter,omitempty"`
	Signals    []Signal        `json:"signals,omitempty"`
}

// AirCon describes what an air conditioner accepts.
type AirCon struct {
	Range    AirConRange `json:"range"`
	TempUnit string      `json:"tempUnit"`
}

// AirConRange lists the per-mode option sets and the fixed buttons.
type AirConRange struct {
	Modes        map[string]AirConRangeMode `json:"modes"`
	FixedButtons []string                   `json:"fixedButtons"`
}

// AirConRangeMode lists the accepted values for one operating mode.
type AirConRangeMode struct {
	Temp []string `json:"temp"`
	Dir  []string `json:"dir"`
	DirH []string `json:"dirh"`
	Vol  []string `json:"vol"`
}

// AirConSettings is the last state sent to an air conditioner.
type AirConSettings struct {
	Temp      string `json:"temp"`
	TempUnit  string `json:"temp_unit,omitempty"`
	Mode      string `json:"mode"`
	Vol       string `json:"vol"`
	Dir       string `json:"dir"`
	DirH      string `json:"dirh"`
	Button    string `json:"button"`
	UpdatedAt string `json:"updated_at"`
}

// Light holds the buttons of an IR light.
type Light struct {
	Buttons []LightButton `json:"buttons"`
	State   *LightState   `json:"state,omitempty"`
}

// LightButton is a named button on a light remote.
type LightButton struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Label string `json:"label,omitempty"`
}

// LightState is returned after pressing a light button.
type LightState struct {
	Brightness string `json:"brightness"`
	Power      string `json:"power"`
	LastButton string `json:"last_button"`
}

// SmartMeter carries the ECHONET Lite properties of a power meter.
type SmartMeter struct {
	EchonetLiteProperties []EchonetLiteProperty `json:"echonetlite_properties"`
}

// EchonetLiteProperty is one EPC value. Val is a decimal string.
type EchonetLiteProperty struct {
	Name      string `json:"name"`
	EPC       int    `json:"epc"`
	Val       string `json:"val"`
	UpdatedAt string `json:"updated_at"`
}

// Signal is a learned IR signal.
type Signal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Appliances groups the appliance list by kind.
type Appliances struct {
	AirCons     []Appliance
	Lights      []Appliance
	SmartMeters []Appliance
	Others      []Appliance
}

// Group sorts appliances by kind. An appliance lands in the first matching
// group in the order aircon, light, smart meter, signals; appliances with
// none of these are dropped.
func Group(list []Appliance) Appliances {
	var g Appliances
	for _, a := range list {
		switch {
		case a.AirCon != nil:
			g.AirCons = append(g.AirCons, a)
		case a.Light != nil:
			g.Lights = append(g.Lights, a)
		case a.SmartMeter != nil:
			g.SmartMeters = append(g.SmartMeters, a)
		case len(a.Signals) > 0:
			g.Others = append(g.Others, a)
		}
	}
	return g
}

// Find returns the appliance with the given id.
func (g Appliances) Find(id string) (*Appliance, bool) {
	for _, group := range [][]Appliance{g.AirCons, g.Lights, g.SmartMeters, g.Others} {
		for i := range group {
			if group[i].ID == id {
				return &group[i], true
			}
		}
	}
	return nil, false
}
