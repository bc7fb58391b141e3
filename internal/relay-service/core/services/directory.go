package services

import "ride-relay/internal/relay-service/core/domain/model"

// Directory holds the last known location of every on-duty driver. Like
// Registry it relies on the Dispatcher for serialization.
type Directory struct {
	drivers map[string]model.DriverLocation
}

func NewDirectory() *Directory {
	return &Directory{drivers: make(map[string]model.DriverLocation)}
}

// Update stores loc as the driver's location. Coordinates are not validated.
func (d *Directory) Update(driverID string, loc model.DriverLocation) {
	loc.DriverID = driverID
	d.drivers[driverID] = loc
}

func (d *Directory) Get(driverID string) (model.DriverLocation, bool) {
	loc, ok := d.drivers[driverID]
	return loc, ok
}

// Delete reports whether the driver was present.
func (d *Directory) Delete(driverID string) bool {
	if _, ok := d.drivers[driverID]; !ok {
		return false
	}
	delete(d.drivers, driverID)
	return true
}

func (d *Directory) Len() int {
	return len(d.drivers)
}
