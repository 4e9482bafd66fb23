/*
Package lua serves code units written in Lua, interpreted by gopher-lua.

A unit is a script under the loader root. Module "fx.blur" and "fx/blur" both
resolve to <root>/fx/blur.lua. The script returns a table of classes:

	local Add = {
	  inputs  = { data = { "a", "b" }, exec = { "run" } },
	  outputs = { data = { "sum" },    exec = { "done" } },
	}

	function Add:sum() return (self:pull("a") or 0) + (self:pull("b") or 0) end
	function Add:run() self.runs = (self.runs or 0) + 1; self:fire("done") end
	function Add:getState() return { runs = self.runs } end
	function Add:setState(s) self.runs = s.runs end

	return { Add = Add }

Every data output and exec input needs a method of the same name. The methods
new, init, getState and setState are optional. Instances get the helpers
self:pull(name), self:fire(name), self:frame() and self:log(msg).

Each load creates a fresh interpreter, so editing a script and reloading it
never mixes old and new definitions.

Scripts may require other modules under the root. Only the unit's own script
is watched, so an edit to a required module takes effect the next time a
script that requires it changes.
*/
package lua
