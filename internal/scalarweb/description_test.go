package scalarweb

import "testing"

const sampleDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0" xmlns:av="urn:schemas-sony-com:av">
  <device>
    <friendlyName>ILCE-7RM4</friendlyName>
    <av:X_ScalarWebAPI_DeviceInfo>
      <av:X_ScalarWebAPI_Version>1.0</av:X_ScalarWebAPI_Version>
      <av:X_ScalarWebAPI_ImagingDevice>
        <av:X_ScalarWebAPI_LiveView_URL>http://10.0.0.2:8080/liveview/liveview.jpg</av:X_ScalarWebAPI_LiveView_URL>
        <av:X_ScalarWebAPI_DefaultFunction>WebAPI</av:X_ScalarWebAPI_DefaultFunction>
      </av:X_ScalarWebAPI_ImagingDevice>
      <av:X_ScalarWebAPI_ServiceList>
        <av:X_ScalarWebAPI_Service>
          <av:X_ScalarWebAPI_ServiceType>guide</av:X_ScalarWebAPI_ServiceType>
          <av:X_ScalarWebAPI_ActionList_URL>http://10.0.0.2:8080/sony</av:X_ScalarWebAPI_ActionList_URL>
        </av:X_ScalarWebAPI_Service>
        <av:X_ScalarWebAPI_Service>
          <av:X_ScalarWebAPI_ServiceType>camera</av:X_ScalarWebAPI_ServiceType>
          <av:X_ScalarWebAPI_ActionList_URL>http://10.0.0.2:8080/sony</av:X_ScalarWebAPI_ActionList_URL>
        </av:X_ScalarWebAPI_Service>
      </av:X_ScalarWebAPI_ServiceList>
    </av:X_ScalarWebAPI_DeviceInfo>
  </device>
</root>`

func TestParse(t *testing.T) {
	desc, err := Parse([]byte(sampleDescription))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if desc.DeviceName != "ILCE-7RM4" {
		t.Errorf("expected device name ILCE-7RM4, got %q", desc.DeviceName)
	}

	if desc.DeviceVersion != "1.0" {
		t.Errorf("expected device version 1.0, got %q", desc.DeviceVersion)
	}

	if desc.API.LiveviewURL != "http://10.0.0.2:8080/liveview/liveview.jpg" {
		t.Errorf("unexpected liveview URL: %q", desc.API.LiveviewURL)
	}

	if desc.API.DefaultFunction != "WebAPI" {
		t.Errorf("unexpected default function: %q", desc.API.DefaultFunction)
	}

	if len(desc.API.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(desc.API.Services))
	}

	if desc.API.Services[0].Type != "guide" || desc.API.Services[1].Type != "camera" {
		t.Errorf("unexpected service order/types: %+v", desc.API.Services)
	}
}

func TestParseMissingNodesDefaultEmpty(t *testing.T) {
	desc, err := Parse([]byte(`<root><device><friendlyName>Bare</friendlyName></device></root>`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if desc.DeviceName != "Bare" {
		t.Errorf("expected device name Bare, got %q", desc.DeviceName)
	}

	if desc.DeviceVersion != "" || desc.API.LiveviewURL != "" || len(desc.API.Services) != 0 {
		t.Errorf("expected missing nodes to default to empty, got %+v", desc)
	}
}
