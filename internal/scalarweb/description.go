// Package scalarweb parses a Sony UPnP device description document into
// the device name, version, and Scalar Web API service list.
package scalarweb

import "encoding/xml"

// Service is a (type, base_url) pair: an endpoint family name and the
// URL its methods are POSTed under.
type Service struct {
	Type    string
	BaseURL string
}

// API is the parsed Scalar Web API surface advertised by a device.
type API struct {
	Services        []Service
	LiveviewURL     string
	DefaultFunction string
}

// Description is the full result of parsing a device description
// document: the generic UPnP identity plus the Sony extension.
type Description struct {
	DeviceName    string
	DeviceVersion string
	API           API
}

// xmlRoot mirrors the subset of the UPnP device description document
// this parser cares about. Unknown elements, including the generic
// <serviceList>, are parsed but unused by the control plane.
type xmlRoot struct {
	XMLName xml.Name  `xml:"root"`
	Device  xmlDevice `xml:"device"`
}

type xmlDevice struct {
	FriendlyName     string              `xml:"friendlyName"`
	ScalarWebAPIInfo xmlScalarWebAPIInfo `xml:"X_ScalarWebAPI_DeviceInfo"`
}

type xmlScalarWebAPIInfo struct {
	Version       string             `xml:"X_ScalarWebAPI_Version"`
	ImagingDevice xmlImagingDevice   `xml:"X_ScalarWebAPI_ImagingDevice"`
	ServiceList   xmlScalarWebAPISvc `xml:"X_ScalarWebAPI_ServiceList"`
}

type xmlImagingDevice struct {
	LiveViewURL     string `xml:"X_ScalarWebAPI_LiveView_URL"`
	DefaultFunction string `xml:"X_ScalarWebAPI_DefaultFunction"`
}

type xmlScalarWebAPISvc struct {
	Services []xmlScalarWebAPIService `xml:"X_ScalarWebAPI_Service"`
}

type xmlScalarWebAPIService struct {
	ServiceType   string `xml:"X_ScalarWebAPI_ServiceType"`
	ActionListURL string `xml:"X_ScalarWebAPI_ActionList_URL"`
}

// Parse decodes a device description document per the extraction rules:
// missing nodes default to the empty string rather than failing.
func Parse(data []byte) (*Description, error) {
	var root xmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	info := root.Device.ScalarWebAPIInfo

	services := make([]Service, 0, len(info.ServiceList.Services))
	for _, s := range info.ServiceList.Services {
		services = append(services, Service{Type: s.ServiceType, BaseURL: s.ActionListURL})
	}

	return &Description{
		DeviceName:    root.Device.FriendlyName,
		DeviceVersion: info.Version,
		API: API{
			Services:        services,
			LiveviewURL:     info.ImagingDevice.LiveViewURL,
			DefaultFunction: info.ImagingDevice.DefaultFunction,
		},
	}, nil
}
